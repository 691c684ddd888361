package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/gramasathi/gramasathi-go/config"
	models "github.com/gramasathi/gramasathi-go/models"
)

// earthRadiusKm converts a km radius to radians for $centerSphere.
const earthRadiusKm = 6378.1

// buildCampFilter composes the optional date-range and proximity
// filters for the camp listing.
func buildCampFilter(startDate, endDate *time.Time, lat, lng, radiusKm float64) bson.M {
	filter := bson.M{}

	if startDate != nil || endDate != nil {
		dateRange := bson.M{}
		if startDate != nil {
			dateRange["$gte"] = *startDate
		}
		if endDate != nil {
			dateRange["$lte"] = *endDate
		}
		filter["date"] = dateRange
	}

	if radiusKm > 0 {
		filter["location"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{lng, lat},
					radiusKm / earthRadiusKm,
				},
			},
		}
	}

	return filter
}

// ---------------- LIST ----------------
func ListCamps(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var startDate, endDate *time.Time
		if v := c.Query("startDate"); v != "" {
			t, err := models.ParseDate(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid startDate"})
				return
			}
			startDate = &t
		}
		if v := c.Query("endDate"); v != "" {
			t, err := models.ParseDate(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid endDate"})
				return
			}
			endDate = &t
		}

		var lat, lng, radius float64
		if latStr, lngStr, radStr := c.Query("lat"), c.Query("lng"), c.Query("radius"); latStr != "" && lngStr != "" && radStr != "" {
			var err error
			if lat, err = strconv.ParseFloat(latStr, 64); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid lat"})
				return
			}
			if lng, err = strconv.ParseFloat(lngStr, 64); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid lng"})
				return
			}
			if radius, err = strconv.ParseFloat(radStr, 64); err != nil || radius <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid radius"})
				return
			}
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("healthcamps")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
		cursor, err := col.Find(ctx, buildCampFilter(startDate, endDate, lat, lng, radius), opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not fetch camps"})
			return
		}

		var camps []models.HealthCamp
		if err := cursor.All(ctx, &camps); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not decode camps"})
			return
		}
		if camps == nil {
			camps = []models.HealthCamp{}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(camps), "data": camps})
	}
}

// ---------------- CREATE ----------------
func CreateCamp(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Title       string    `json:"title" binding:"required"`
			Description string    `json:"description"`
			Date        string    `json:"date" binding:"required"`
			Coordinates []float64 `json:"coordinates" binding:"required"` // [lng, lat]
			Organizer   string    `json:"organizer"`
			Services    []string  `json:"services"`
			Contact     string    `json:"contact"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		date, err := models.ParseDate(input.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid date format, use RFC3339 or YYYY-MM-DD"})
			return
		}
		if len(input.Coordinates) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "coordinates must be [lng, lat]"})
			return
		}

		now := time.Now()
		camp := models.HealthCamp{
			ID:          primitive.NewObjectID(),
			Title:       input.Title,
			Description: input.Description,
			Date:        date,
			Location: models.GeoPoint{
				Type:        "Point",
				Coordinates: input.Coordinates,
			},
			Organizer: input.Organizer,
			Services:  input.Services,
			Contact:   input.Contact,
			CreatedAt: now,
			UpdatedAt: now,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("healthcamps")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, camp); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Could not create camp"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": camp})
	}
}
