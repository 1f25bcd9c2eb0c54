package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/findone/findone-backend/config"
	"github.com/findone/findone-backend/database"
	"github.com/findone/findone-backend/internal/activity"
	"github.com/findone/findone-backend/internal/auditlog"
	"github.com/findone/findone-backend/internal/auth"
	"github.com/findone/findone-backend/internal/chat"
	"github.com/findone/findone-backend/internal/notification"
	"github.com/findone/findone-backend/internal/rating"
	"github.com/findone/findone-backend/routes"
	"github.com/findone/findone-backend/utils"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)

	err := db.AutoMigrate(
		&auth.User{},
		&activity.Activity{},
		&activity.JoinRequest{},
		&activity.AttendanceRecord{},
		&rating.UserRating{},
		&chat.Chat{},
		&chat.Message{},
		&notification.InAppNotification{},
		&auditlog.AuditLog{},
	)
	if err != nil {
		log.Fatalf("auto migration failed: %v", err)
	}

	if err := utils.InitRedis(); err != nil {
		// Verification codes and geocode caching need Redis; the rest of
		// the API still works without it.
		log.Printf("redis unavailable: %v", err)
	}

	utils.InitializeKafka()

	r := gin.Default()
	chatSvc := routes.Setup(r, cfg)

	if utils.KafkaEnabled() {
		go chat.StartKafkaConsumer(context.Background(), chatSvc)
	}

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
