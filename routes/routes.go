package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/gramasathi/gramasathi-go/config"
	controllers "github.com/gramasathi/gramasathi-go/controllers"
	middleware "github.com/gramasathi/gramasathi-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	auth := middleware.AuthMiddleware(cfg)

	api := r.Group("/api")

	// public
	api.POST("/auth/register", controllers.Register(cfg))
	api.POST("/auth/login", controllers.Login(cfg))
	api.GET("/auth/me", auth, controllers.Me(cfg))

	charity := api.Group("/charity")
	{
		charity.GET("", controllers.ListCampaigns(cfg))
		charity.GET("/:id", controllers.GetCampaign(cfg))
		charity.POST("", auth, controllers.CreateCampaign(cfg))
		charity.PUT("/:id", auth, controllers.UpdateCampaign(cfg))
		charity.POST("/:id/donate", auth, controllers.Donate(cfg))
		charity.POST("/:id/update", auth, controllers.AddCampaignUpdate(cfg))
	}

	profile := api.Group("/profile")
	profile.Use(auth)
	{
		profile.PUT("", controllers.UpdateProfile(cfg))
		profile.POST("/upload-picture", controllers.UploadProfilePicture(cfg))
		profile.GET("/my-campaigns", controllers.MyCampaigns(cfg))
		profile.GET("/my-donations", controllers.MyDonations(cfg))
		profile.PUT("/change-password", controllers.ChangePassword(cfg))
	}

	camps := api.Group("/camps")
	{
		camps.GET("", controllers.ListCamps(cfg))
		camps.POST("", auth, controllers.CreateCamp(cfg))
	}
}
