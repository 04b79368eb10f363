package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/zenopia/favely/pkg/favely/auth"
	"github.com/zenopia/favely/pkg/favely/collaborators"
	"github.com/zenopia/favely/pkg/favely/database"
	"github.com/zenopia/favely/pkg/favely/email"
	"github.com/zenopia/favely/pkg/favely/feedback"
	"github.com/zenopia/favely/pkg/favely/follows"
	"github.com/zenopia/favely/pkg/favely/items"
	"github.com/zenopia/favely/pkg/favely/lists"
	"github.com/zenopia/favely/pkg/favely/middleware"
	"github.com/zenopia/favely/pkg/favely/notifications"
	"github.com/zenopia/favely/pkg/favely/oidc"
	"github.com/zenopia/favely/pkg/favely/pins"
	"github.com/zenopia/favely/pkg/favely/store"
	"github.com/zenopia/favely/pkg/favely/users"

	_ "github.com/zenopia/favely/api/swagger"
)

// @title Favely API
// @version 1.0
// @description A social platform for creating, sharing, and discovering ranked lists.

// @contact.name Favely Support
// @contact.url https://github.com/zenopia/favely

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT session token. Format: "Bearer {token}"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoURI := os.Getenv("FAVELY_MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("FAVELY_DB_NAME")
	if dbName == "" {
		dbName = "favely"
	}
	baseURL := os.Getenv("FAVELY_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	db, err := database.Connect(ctx, mongoURI, dbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	log.Println("Database indexes ensured")

	// Stores
	userStore := store.NewUserStore(db.Collection(database.CollUsers))
	listStore := store.NewListStore(db.Collection(database.CollLists))
	pinStore := store.NewPinStore(db.Collection(database.CollPins))
	followStore := store.NewFollowStore(db.Collection(database.CollFollows))
	inviteStore := store.NewInviteStore(db.Collection(database.CollInvitations))
	notificationStore := store.NewNotificationStore(db.Collection(database.CollNotifications))
	feedbackStore := store.NewFeedbackStore(db.Collection(database.CollFeedback))

	mailer := email.NewFromEnv(baseURL)

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Auth and feedback take anonymous traffic, so they get throttled per IP
	limiter := middleware.NewLimiterStore(30, 10, 5*time.Minute)
	defer limiter.Stop()

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "favely",
			})
		})

		// Auth routes (public, rate limited)
		authHandler := auth.NewHandler(userStore)
		authHandler.RegisterRoutes(api.Group("/auth", middleware.RateLimit(limiter)))

		// OIDC login, if an identity provider is configured
		oidcHandler, err := oidc.NewHandlerFromEnv(userStore, baseURL)
		if err != nil {
			log.Fatalf("Failed to set up OIDC: %v", err)
		}
		if oidcHandler != nil {
			oidcHandler.RegisterRoutes(api.Group(""))
			log.Println("OIDC login enabled")
		}

		// Handlers
		listsHandler := lists.NewHandler(listStore, userStore, pinStore, inviteStore)
		itemsHandler := items.NewHandler(listStore)
		pinsHandler := pins.NewHandler(pinStore, listStore, userStore)
		followsHandler := follows.NewHandler(followStore, userStore, notificationStore)
		collabHandler := collaborators.NewHandler(listStore, inviteStore, userStore, notificationStore, mailer)
		usersHandler := users.NewHandler(userStore, listStore, followStore, pinStore)
		notificationsHandler := notifications.NewHandler(notificationStore)
		feedbackHandler := feedback.NewHandler(feedbackStore, mailer)

		// Public routes take an optional token so responses can reflect the
		// viewer when one is present
		public := api.Group("", auth.OptionalAuthMiddleware())
		listsHandler.RegisterPublicRoutes(public)
		usersHandler.RegisterPublicRoutes(public)
		feedbackHandler.RegisterRoutes(public.Group("", middleware.RateLimit(limiter)))

		// Protected routes
		protected := api.Group("", auth.AuthMiddleware())
		listsHandler.RegisterRoutes(protected)
		itemsHandler.RegisterRoutes(protected)
		pinsHandler.RegisterRoutes(protected)
		followsHandler.RegisterRoutes(protected)
		collabHandler.RegisterRoutes(protected)
		usersHandler.RegisterRoutes(protected)
		notificationsHandler.RegisterRoutes(protected)
	}

	// Serve static frontend files if web/dist exists
	webDistPath := "./web/dist"
	if _, err := os.Stat(webDistPath); err == nil {
		r.Static("/assets", filepath.Join(webDistPath, "assets"))
		r.StaticFile("/favicon.ico", filepath.Join(webDistPath, "favicon.ico"))
		r.StaticFile("/robots.txt", filepath.Join(webDistPath, "robots.txt"))

		// SPA fallback - serve index.html for frontend routes
		indexHTML := filepath.Join(webDistPath, "index.html")
		spaRoutes := []string{"/", "/login", "/register", "/discover", "/pins", "/settings", "/notifications"}
		for _, route := range spaRoutes {
			r.GET(route, func(c *gin.Context) {
				c.File(indexHTML)
			})
		}
		// Also handle sub-routes like /lists/:id and /profile/:username
		r.GET("/lists/*path", func(c *gin.Context) {
			c.File(indexHTML)
		})
		r.GET("/profile/*path", func(c *gin.Context) {
			c.File(indexHTML)
		})

		log.Println("Serving frontend from ./web/dist")
	} else {
		log.Println("No frontend build found at ./web/dist - API only mode")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Starting Favely server on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown: %v", err)
	}
	if err := db.Close(shutdownCtx); err != nil {
		log.Printf("Warning: database disconnect: %v", err)
	}
}
