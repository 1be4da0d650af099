// Package notification serves the in-app inbox and the websocket feed
package notification

import (
	"net/http"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NotificationList returns the user's notifications, newest first,
// with the unread count so badges don't need a second request
func NotificationList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var query struct {
		Page  int `form:"page,default=0"`
		Limit int `form:"limit,default=25"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Page < 0 || query.Limit < 1 || query.Limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid pagination parameters",
			"requestID": requestID,
		})
		return
	}

	var unread int64
	if err := d.DB.Model(model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count notifications", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var rows []model.Notification
	err := d.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(query.Page * query.Limit).
		Limit(query.Limit).
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list notifications", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread":        unread,
		"notifications": rows,
	})
}

// NotificationRead marks one notification, or all of them when the ID
// is "all", as read
func NotificationRead(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	q := d.DB.Model(model.Notification{}).Where("user_id = ?", userID)

	id := c.Param("id")
	if id != "all" {
		q = q.Where("id = ?", id)
	}

	res := q.Update("read", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mark notifications read", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if id != "all" && res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Notification not found",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// NotificationSocket upgrades to a websocket and streams events until
// the client hangs up
func NotificationSocket(hub *ws.Hub) func(c *gin.Context, d *internal.Deps) {
	return func(c *gin.Context, d *internal.Deps) {
		userID := c.MustGet("userID").(string)

		origins := viper.GetStringSlice("host.cors")
		if err := hub.Serve(c.Writer, c.Request, userID, origins); err != nil {
			zap.L().Debug("Websocket closed", zap.Error(err), zap.String("userID", userID))
		}
	}
}
