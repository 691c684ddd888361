package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/gramasathi/gramasathi-go/config"
	routes "github.com/gramasathi/gramasathi-go/routes"
)

func main() {
	cfg := config.Load()

	if err := cfg.ConnectMongo(); err != nil {
		log.Fatal("MongoDB connection error: ", err)
	}
	if err := cfg.EnsureIndexes(); err != nil {
		log.Fatal("Index creation error: ", err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"ETag", "Last-Modified"},
		AllowCredentials: true,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "GramaSathi API is running")
	})

	routes.SetupRoutes(r, cfg)

	log.Printf("Server running on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server error: ", err)
	}
}
