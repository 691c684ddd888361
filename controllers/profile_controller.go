package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	config "github.com/gramasathi/gramasathi-go/config"
	models "github.com/gramasathi/gramasathi-go/models"
	utils "github.com/gramasathi/gramasathi-go/utils"
)

// ---------------- UPDATE PROFILE ----------------
func UpdateProfile(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		var input struct {
			Name              string `json:"name"`
			Phone             string `json:"phone"`
			Village           string `json:"village"`
			District          string `json:"district"`
			State             string `json:"state"`
			PreferredLanguage string `json:"preferred_language"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		update := bson.M{"updated_at": time.Now()}
		if input.Name != "" {
			update["name"] = input.Name
		}
		if input.Phone != "" {
			update["phone"] = input.Phone
		}
		if input.Village != "" {
			update["village"] = input.Village
		}
		if input.District != "" {
			update["district"] = input.District
		}
		if input.State != "" {
			update["state"] = input.State
		}
		if input.PreferredLanguage != "" {
			update["preferred_language"] = input.PreferredLanguage
		}

		if len(update) == 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no fields to update"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err = col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": update}, opts).Decode(&user)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	}
}

// ---------------- UPLOAD PROFILE PICTURE ----------------
func UploadProfilePicture(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		fileHeader, err := c.FormFile("profile_picture")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file uploaded"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to open file"})
			return
		}
		url, err := utils.UploadToCloudinary(file, utils.FolderProfiles)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "image upload failed", "details": err.Error()})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var previous models.User
		opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
		err = col.FindOneAndUpdate(ctx,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"profile_picture": url, "updated_at": time.Now()}},
			opts,
		).Decode(&previous)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}

		// drop the replaced picture, best-effort
		if previous.ProfilePicture != "" {
			go utils.DeleteFromCloudinary(previous.ProfilePicture)
		}

		previous.ProfilePicture = url
		c.JSON(http.StatusOK, gin.H{"success": true, "profile_picture": url, "user": previous})
	}
}

// ---------------- MY CAMPAIGNS ----------------
func MyCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
		cursor, err := col.Find(ctx, bson.M{"organizer": userID}, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not fetch campaigns"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not decode campaigns"})
			return
		}

		now := time.Now()
		for i := range campaigns {
			campaigns[i].FillDerived(now)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(campaigns), "data": campaigns})
	}
}

// ---------------- MY DONATIONS ----------------
func MyDonations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("charities")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
		cursor, err := col.Find(ctx, bson.M{"donors.user": userID}, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not fetch donations"})
			return
		}

		var campaigns []models.Campaign
		if err := cursor.All(ctx, &campaigns); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not decode donations"})
			return
		}

		type donationGroup struct {
			CampaignID primitive.ObjectID `json:"campaign_id"`
			Title      string             `json:"title"`
			Description string            `json:"description"`
			Image      string             `json:"image"`
			Status     string             `json:"status"`
			Donations  []models.Donor     `json:"donations"`
		}

		donations := make([]donationGroup, 0, len(campaigns))
		for _, cp := range campaigns {
			var mine []models.Donor
			for _, d := range cp.Donors {
				if d.User == userID {
					mine = append(mine, d)
				}
			}

			image := ""
			if len(cp.Images) > 0 {
				image = cp.Images[0]
			}

			donations = append(donations, donationGroup{
				CampaignID:  cp.ID,
				Title:       cp.Title,
				Description: cp.Description,
				Image:       image,
				Status:      cp.Status,
				Donations:   mine,
			})
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(donations), "data": donations})
	}
}

// ---------------- CHANGE PASSWORD ----------------
func ChangePassword(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid user id"})
			return
		}

		var input struct {
			CurrentPassword string `json:"current_password" binding:"required"`
			NewPassword     string `json:"new_password" binding:"required,min=6"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := col.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Current password is incorrect"})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
			return
		}

		_, err = col.UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$set": bson.M{"password": string(hashed), "updated_at": time.Now()}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not update password"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
	}
}
