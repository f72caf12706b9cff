package main

import (
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"quill/auth"
	"quill/blog"
	"quill/common"
	"quill/database"
	"quill/email"
	"quill/site"
)

func main() {
	godotenv.Load()

	db := common.ConnectDb()
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	router := gin.Default()

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})

	router.Use(sessions.Sessions("quill-session", store))

	router.LoadHTMLGlob("templates/*.html")
	router.Static("/static", "./static")

	authModule := auth.NewAuthModule(db)
	authModule.RegisterRoutes(router)

	blogModule := blog.NewBlogModule(db)
	blogModule.RegisterRoutes(router)

	siteModule := site.NewSiteModule(db, email.NewService())
	siteModule.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
