package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/gramasathi/gramasathi-go/config"
	models "github.com/gramasathi/gramasathi-go/models"
)

func TestBuildCampaignFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildCampaignFilter("", "", ""))

	f := buildCampaignFilter("elderly", "active", "")
	assert.Equal(t, "elderly", f["category"])
	assert.Equal(t, "active", f["status"])
	_, hasSearch := f["$or"]
	assert.False(t, hasSearch)

	f = buildCampaignFilter("", "", "blankets")
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	title := or[0].(bson.M)["title"].(bson.M)
	assert.Equal(t, "blankets", title["$regex"])
	assert.Equal(t, "i", title["$options"])
	desc := or[1].(bson.M)["description"].(bson.M)
	assert.Equal(t, "blankets", desc["$regex"])
}

func TestCanManageCampaign(t *testing.T) {
	organizer := primitive.NewObjectID()
	campaign := &models.Campaign{Organizer: organizer}

	assert.True(t, canManageCampaign(campaign, organizer.Hex(), models.RoleUser))
	assert.True(t, canManageCampaign(campaign, primitive.NewObjectID().Hex(), models.RoleAdmin))
	assert.False(t, canManageCampaign(campaign, primitive.NewObjectID().Hex(), models.RoleUser))
	assert.False(t, canManageCampaign(campaign, "", models.RoleUser))
}

func TestDonationPipeline(t *testing.T) {
	now := time.Now()
	donor := models.Donor{
		User:      primitive.NewObjectID(),
		Amount:    250,
		Date:      now,
		Anonymous: true,
		Message:   "get well soon",
	}

	pipeline := donationPipeline(donor, now)
	require.Len(t, pipeline, 2)

	// stage 1: ledger append plus atomic increment
	set1 := pipeline[0].(bson.M)["$set"].(bson.M)
	inc := set1["raised_amount"].(bson.M)
	assert.Equal(t, bson.A{"$raised_amount", 250.0}, inc["$add"])

	concat := set1["donors"].(bson.M)["$concatArrays"].(bson.A)
	require.Len(t, concat, 2)
	entry := concat[1].(bson.A)[0].(bson.M)["$literal"].(bson.M)
	assert.Equal(t, donor.User, entry["user"])
	assert.Equal(t, 250.0, entry["amount"])
	assert.Equal(t, true, entry["anonymous"])
	assert.Equal(t, "get well soon", entry["message"])

	// stage 2: completed only from active, otherwise status untouched
	set2 := pipeline[1].(bson.M)["$set"].(bson.M)
	cond := set2["status"].(bson.M)["$cond"].(bson.A)
	require.Len(t, cond, 3)
	assert.Equal(t, models.StatusCompleted, cond[1])
	assert.Equal(t, "$status", cond[2])

	and := cond[0].(bson.M)["$and"].(bson.A)
	assert.Equal(t, bson.M{"$eq": bson.A{"$status", models.StatusActive}}, and[0])
	assert.Equal(t, bson.M{"$gte": bson.A{"$raised_amount", "$target_amount"}}, and[1])
}

func TestDonationPipelineOmitsEmptyOptionalFields(t *testing.T) {
	now := time.Now()
	pipeline := donationPipeline(models.Donor{Amount: 50, Date: now}, now)

	set1 := pipeline[0].(bson.M)["$set"].(bson.M)
	concat := set1["donors"].(bson.M)["$concatArrays"].(bson.A)
	entry := concat[1].(bson.A)[0].(bson.M)["$literal"].(bson.M)

	_, hasUser := entry["user"]
	assert.False(t, hasUser)
	_, hasMessage := entry["message"]
	assert.False(t, hasMessage)
}

func TestSuppressAnonymousDonors(t *testing.T) {
	known := primitive.NewObjectID()
	donors := []models.Donor{
		{User: known, Amount: 100, UserName: "Asha", UserPicture: "pic.jpg"},
		{User: primitive.NewObjectID(), Amount: 200, Anonymous: true, UserName: "Ravi", UserPicture: "ravi.jpg"},
	}

	suppressAnonymousDonors(donors)

	assert.Equal(t, known, donors[0].User)
	assert.Equal(t, "Asha", donors[0].UserName)

	assert.True(t, donors[1].User.IsZero())
	assert.Empty(t, donors[1].UserName)
	assert.Empty(t, donors[1].UserPicture)
	assert.Equal(t, 200.0, donors[1].Amount, "amount stays on the ledger")
}

// donateRequest runs the Donate handler far enough to exercise the
// request validation paths, which never reach the database.
func donateRequest(t *testing.T, userID, campaignID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/charity/"+campaignID+"/donate", bytes.NewReader(b))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: campaignID}}
	c.Set("user_id", userID)
	c.Set("role", models.RoleUser)

	Donate(&config.Config{})(c)
	return w
}

func TestDonateRejectsNonPositiveAmount(t *testing.T) {
	userID := primitive.NewObjectID().Hex()
	campaignID := primitive.NewObjectID().Hex()

	for _, amount := range []float64{0, -10} {
		w := donateRequest(t, userID, campaignID, map[string]interface{}{"amount": amount})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var res struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "amount must be greater than 0")
	}
}

func TestDonateRejectsBadCampaignID(t *testing.T) {
	w := donateRequest(t, primitive.NewObjectID().Hex(), "not-an-id", map[string]interface{}{"amount": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDonateRejectsMissingIdentity(t *testing.T) {
	w := donateRequest(t, "garbage", primitive.NewObjectID().Hex(), map[string]interface{}{"amount": 100})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
