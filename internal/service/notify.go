package service

import (
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/ws"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notify persists a notification row and pushes it to any open
// websocket connections of the user. The push is best effort, the row
// is what the user sees when they come back
func Notify(db *gorm.DB, hub *ws.Hub, userID, kind, title, body string) {
	n := model.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := db.Create(&n).Error; err != nil {
		zap.L().Error("Failed to store notification", zap.Error(err), zap.String("user_id", userID))
		return
	}

	if hub != nil {
		hub.Send(userID, ws.Event{
			Type:    "notification",
			Payload: n,
			SentAt:  time.Now(),
		})
	}
}
