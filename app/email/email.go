// Package email handles newsletter opt-in and opt-out
package email

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/pkg/security"
	"thevideopool/pool-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmailSubscribe opts an address in. Subscribing twice, or again after
// unsubscribing, just re-enables the row
func EmailSubscribe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var sub model.EmailSubscriber
	err := d.DB.Where("email = ?", data.Email).First(&sub).Error
	switch err {
	case nil:
		if !sub.IsSubscribed {
			err = d.DB.Model(&sub).Updates(map[string]any{
				"is_subscribed":   true,
				"unsubscribed_at": nil,
				"subscribed_at":   time.Now(),
			}).Error
		}
	case gorm.ErrRecordNotFound:
		sub = model.EmailSubscriber{
			Email:        data.Email,
			IsSubscribed: true,
			Source:       "form",
			SubscribedAt: time.Now(),
		}
		err = d.DB.Create(&sub).Error
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to subscribe email", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": true})
}

// EmailUnsubscribe opts an address out via the signed token from a
// campaign footer. No login required, the token is the proof
func EmailUnsubscribe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	t, err := security.Verify([]byte(viper.GetString("security.stream_secret")), c.Query("token"))
	if err != nil || t.Scope != security.ScopeUnsubscribe {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid unsubscribe link",
			"requestID": requestID,
		})
		return
	}

	now := time.Now()
	res := d.DB.Model(model.EmailSubscriber{}).
		Where("email = ? AND is_subscribed = ?", t.Subject, true).
		Updates(map[string]any{
			"is_subscribed":   false,
			"unsubscribed_at": &now,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to unsubscribe email", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	// Already unsubscribed or unknown both come back OK, the link in an
	// old email should never error for the recipient
	c.JSON(http.StatusOK, gin.H{"unsubscribed": true})
}
