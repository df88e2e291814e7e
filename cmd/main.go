package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"civicpulse/backend/internal/api/handler"
	"civicpulse/backend/internal/complaints"
	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/feedhub"
	"civicpulse/backend/internal/geo"
	"civicpulse/backend/internal/models"
	"civicpulse/backend/internal/notify"
	"civicpulse/backend/internal/storage"
	"civicpulse/backend/internal/upload"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Complaint{},
		&models.ActivityLog{},
		&models.FeedEvent{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting CivicPulse Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	hub := feedhub.NewManagerService(s)
	go hub.Run()

	uploader := upload.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)
	svc := complaints.NewService(s, uploader)
	svc.Geocoder = geo.NewGeocoder(cfg.GeocoderBaseURL, rdb)
	svc.Feed = hub

	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != "" {
		chatID, err := strconv.ParseInt(cfg.TelegramAdminChatID, 10, 64)
		if err != nil {
			log.Fatalf("Invalid TELEGRAM_ADMIN_CHAT_ID: %v", err)
		}
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, chatID)
		if err != nil {
			log.Fatalf("Failed to start Telegram notifier: %v", err)
		}
		svc.Notifier = notifier
	}

	r := gin.Default()
	h := handler.NewHandler(cfg, s, svc, hub)

	r.POST("/api/session", h.Session)

	authed := r.Group("/api", h.AuthRequired())
	{
		authed.GET("/me", h.Me)
		authed.GET("/leaderboard", h.Leaderboard)
		authed.GET("/feed", h.Feed)
		authed.GET("/ws/feed", h.ServeFeed)

		authed.GET("/complaints", h.ListComplaints)
		authed.POST("/complaints", h.SubmitComplaint)
		authed.GET("/complaints/mine", h.MyComplaints)
		authed.GET("/complaints/nearby", h.NearbyOpen)
		authed.GET("/complaints/:id", h.GetComplaint)
		authed.GET("/complaints/:id/activity", h.ComplaintActivity)
		authed.POST("/complaints/:id/upvote", h.ToggleUpvote)

		admin := authed.Group("/admin", h.RequireAdmin())
		{
			admin.GET("/dashboard", h.Dashboard)
			admin.PATCH("/complaints/:id/status", h.UpdateStatus)
		}
	}

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
