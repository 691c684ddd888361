package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/gramasathi/gramasathi-go/config"
	models "github.com/gramasathi/gramasathi-go/models"
	utils "github.com/gramasathi/gramasathi-go/utils"
)

const maxCampaignImages = 5

// buildCampaignFilter composes the conjunctive list filter: category
// equality, status equality, and case-insensitive substring match on
// title or description.
func buildCampaignFilter(category, status, search string) bson.M {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	if status != "" {
		filter["status"] = status
	}
	if search != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": search, "$options": "i"}},
		}
	}
	return filter
}

// canManageCampaign is the access rule for metadata mutation and update
// posts: the organizer or an admin. Donations and reads bypass this.
func canManageCampaign(campaign *models.Campaign, userID, role string) bool {
	return role == models.RoleAdmin || campaign.Organizer.Hex() == userID
}

// donationPipeline builds the single aggregation-pipeline update that
// appends the donor entry, increments raised_amount, and flips status
// to completed once the target is reached. One atomic operation, so
// concurrent donations never lose an increment, and completed never
// reverts to active.
func donationPipeline(donor models.Donor, now time.Time) bson.A {
	entry := bson.M{
		"amount":    donor.Amount,
		"date":      donor.Date,
		"anonymous": donor.Anonymous,
	}
	if !donor.User.IsZero() {
		entry["user"] = donor.User
	}
	if donor.Message != "" {
		entry["message"] = donor.Message
	}

	return bson.A{
		bson.M{"$set": bson.M{
			"donors": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$donors", bson.A{}}},
				bson.A{bson.M{"$literal": entry}},
			}},
			"raised_amount": bson.M{"$add": bson.A{"$raised_amount", donor.Amount}},
			"updated_at":    now,
		}},
		bson.M{"$set": bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$status", models.StatusActive}},
					bson.M{"$gte": bson.A{"$raised_amount", "$target_amount"}},
				}},
				models.StatusCompleted,
				"$status",
			}},
		}},
	}
}

// ---------------- LIST ----------------
func ListCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		filter := buildCampaignFilter(c.Query("category"), c.Query("status"), c.Query("search"))

		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
		cursor, err := col.Find(ctx, filter, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not fetch campaigns"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not decode campaigns"})
			return
		}

		if len(campaigns) == 0 {
			c.JSON(http.StatusOK, gin.H{"success": true, "count": 0, "data": []models.Campaign{}})
			return
		}

		// join organizer display fields in one batch lookup
		organizerIDs := make([]primitive.ObjectID, 0, len(campaigns))
		for _, cp := range campaigns {
			organizerIDs = append(organizerIDs, cp.Organizer)
		}
		summaries, err := loadUserSummaries(ctx, cfg, organizerIDs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not resolve organizers"})
			return
		}

		now := time.Now()
		for i := range campaigns {
			campaigns[i].FillDerived(now)
			campaigns[i].OrganizerInfo = summaries[campaigns[i].Organizer]
			suppressAnonymousDonors(campaigns[i].Donors)
		}

		// --- Pick the most recently updated campaign ---
		latest := campaigns[0]
		for _, cp := range campaigns {
			if cp.UpdatedAt.After(latest.UpdatedAt) {
				latest = cp
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(campaigns), "data": campaigns})
	}
}

// ---------------- GET ----------------
func GetCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid campaign id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var campaign models.Campaign
		err = cfg.MongoClient.Database(cfg.DBName).
			Collection("charities").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&campaign)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Campaign not found"})
			return
		}

		// resolve organizer plus non-anonymous donor identities
		ids := []primitive.ObjectID{campaign.Organizer}
		for _, d := range campaign.Donors {
			if !d.Anonymous && !d.User.IsZero() {
				ids = append(ids, d.User)
			}
		}
		summaries, err := loadUserSummaries(ctx, cfg, ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not resolve users"})
			return
		}

		campaign.FillDerived(time.Now())
		campaign.OrganizerInfo = summaries[campaign.Organizer]
		for i := range campaign.Donors {
			d := &campaign.Donors[i]
			if d.Anonymous {
				d.User = primitive.NilObjectID
				continue
			}
			if s, ok := summaries[d.User]; ok {
				d.UserName = s.Name
				d.UserPicture = s.ProfilePicture
			}
		}

		etag := utils.GenerateETag(campaign.ID, campaign.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, gin.H{"success": true, "data": campaign})
	}
}

// ---------------- CREATE ----------------
func CreateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		organizerID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		var input models.CampaignInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		if errs := input.Validate(); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Validation failed", "errors": errs})
			return
		}
		endDate, _ := models.ParseDate(input.EndDate)

		imageURLs, err := uploadFormImages(c, "images", maxCampaignImages, utils.FolderCharity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "image upload failed", "details": err.Error()})
			return
		}

		now := time.Now()
		campaign := models.Campaign{
			ID:           primitive.NewObjectID(),
			Title:        input.Title,
			Description:  input.Description,
			Category:     input.Category,
			TargetAmount: input.TargetAmount,
			RaisedAmount: 0,
			StartDate:    now,
			EndDate:      endDate,
			Location: models.CampaignLocation{
				Village:  input.Village,
				District: input.District,
				State:    input.State,
			},
			Organizer:     organizerID,
			Beneficiaries: input.Beneficiaries,
			Images:        imageURLs,
			Status:        models.StatusActive,
			Donors:        []models.Donor{},
			Updates:       []models.CampaignUpdate{},
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, campaign); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not create campaign"})
			return
		}

		campaign.FillDerived(now)
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": campaign})
	}
}

// ---------------- UPDATE ----------------
func UpdateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		role := c.GetString("role")

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid campaign id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Campaign not found"})
			return
		}

		if !canManageCampaign(&existing, uid, role) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to update this campaign"})
			return
		}

		var input struct {
			Title        string  `json:"title"`
			Description  string  `json:"description"`
			Category     string  `json:"category"`
			TargetAmount float64 `json:"target_amount"`
			EndDate      string  `json:"end_date"`
			Village      string  `json:"village"`
			District     string  `json:"district"`
			State        string  `json:"state"`
			Status       string  `json:"status"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Title != "" {
			update["title"] = input.Title
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.Category != "" {
			if !models.ValidCategory(input.Category) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid category"})
				return
			}
			update["category"] = input.Category
		}
		if input.TargetAmount > 0 {
			update["target_amount"] = input.TargetAmount
		}
		if input.EndDate != "" {
			endDate, err := models.ParseDate(input.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid end_date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			update["end_date"] = endDate
		}
		if input.Village != "" || input.District != "" || input.State != "" {
			loc := existing.Location
			if input.Village != "" {
				loc.Village = input.Village
			}
			if input.District != "" {
				loc.District = input.District
			}
			if input.State != "" {
				loc.State = input.State
			}
			update["location"] = loc
		}
		if input.Status != "" {
			// the only client-drivable transition is active -> cancelled;
			// completed is set by the donation path alone
			if input.Status != models.StatusCancelled || existing.Status != models.StatusActive {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "status can only change from active to cancelled"})
				return
			}
			update["status"] = models.StatusCancelled
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no fields to update"})
			return
		}

		var updated models.Campaign
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": update}, opts).Decode(&updated)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not update campaign"})
			return
		}

		updated.FillDerived(time.Now())
		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// ---------------- DONATE ----------------
func Donate(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid campaign id"})
			return
		}

		var input struct {
			Amount    float64 `json:"amount"`
			Message   string  `json:"message"`
			Anonymous bool    `json:"anonymous"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		if input.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "amount must be greater than 0"})
			return
		}

		now := time.Now()
		donor := models.Donor{
			User:      userID,
			Amount:    input.Amount,
			Date:      now,
			Anonymous: input.Anonymous,
			Message:   input.Message,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var updated models.Campaign
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, donationPipeline(donor, now), opts).Decode(&updated)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Campaign not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not record donation"})
			return
		}

		// best-effort receipt, never blocks the response
		go sendDonationReceipt(cfg, userID, &updated, input.Amount)

		updated.FillDerived(now)
		suppressAnonymousDonors(updated.Donors)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// ---------------- POST UPDATE ----------------
func AddCampaignUpdate(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		role := c.GetString("role")

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid campaign id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Campaign not found"})
			return
		}

		if !canManageCampaign(&existing, uid, role) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to update this campaign"})
			return
		}

		var input struct {
			Title   string `form:"title" binding:"required"`
			Content string `form:"content" binding:"required"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		imageURLs, err := uploadFormImages(c, "images", 3, utils.FolderCharity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "image upload failed", "details": err.Error()})
			return
		}

		now := time.Now()
		entry := models.CampaignUpdate{
			Title:   input.Title,
			Content: input.Content,
			Date:    now,
			Images:  imageURLs,
		}

		var updated models.Campaign
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = col.FindOneAndUpdate(ctx,
			bson.M{"_id": oid},
			bson.M{"$push": bson.M{"updates": entry}, "$set": bson.M{"updated_at": now}},
			opts,
		).Decode(&updated)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not add campaign update"})
			return
		}

		updated.FillDerived(now)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// suppressAnonymousDonors blanks donor identity on anonymous entries so
// it never reaches a response, whoever the caller is.
func suppressAnonymousDonors(donors []models.Donor) {
	for i := range donors {
		if donors[i].Anonymous {
			donors[i].User = primitive.NilObjectID
			donors[i].UserName = ""
			donors[i].UserPicture = ""
		}
	}
}

// loadUserSummaries fetches display fields for a set of user ids.
func loadUserSummaries(ctx context.Context, cfg *config.Config, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error) {
	summaries := map[primitive.ObjectID]*models.UserSummary{}
	if len(ids) == 0 {
		return summaries, nil
	}

	cursor, err := cfg.MongoClient.Database(cfg.DBName).
		Collection("users").
		Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		summaries[users[i].ID] = users[i].Summary()
	}
	return summaries, nil
}

// uploadFormImages pushes multipart files under the given key to
// Cloudinary, capped at limit.
func uploadFormImages(c *gin.Context, key string, limit int, folder string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, err
	}
	if form == nil {
		return nil, nil
	}

	files := form.File[key]
	if len(files) > limit {
		files = files[:limit]
	}

	var urls []string
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		url, err := utils.UploadToCloudinary(file, folder)
		file.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// sendDonationReceipt emails the donor a confirmation. Failures are
// logged inside SendEmail and otherwise ignored.
func sendDonationReceipt(cfg *config.Config, userID primitive.ObjectID, campaign *models.Campaign, amount float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := cfg.MongoClient.Database(cfg.DBName).
		Collection("users").
		FindOne(ctx, bson.M{"_id": userID}).
		Decode(&user)
	if err != nil || user.Email == "" {
		return
	}

	utils.SendDonationReceipt(user.Email, user.Name, campaign.Title, amount)
}
