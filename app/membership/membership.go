// Package membership exposes the billing tiers and the current user's
// subscription state
package membership

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MembershipList returns all tiers, cheapest first
func MembershipList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var tiers []model.Membership
	if err := d.DB.Order("price_cents ASC").Find(&tiers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list memberships", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, tiers)
}

// MembershipSubscribe switches the user to a new tier. The quota resets
// to the new tier's full allowance and the billing period restarts
func MembershipSubscribe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data struct {
		MembershipID uint `json:"membership_id" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	var tier model.Membership
	if err := d.DB.Where("id = ?", data.MembershipID).First(&tier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Membership not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load membership", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err := d.DB.Model(model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"membership_id":       tier.ID,
			"downloads_remaining": tier.MonthlyDownloads,
			"billing_renews_at":   time.Now().AddDate(0, 1, 0),
		}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update subscription", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"membership":          tier,
		"downloads_remaining": tier.MonthlyDownloads,
	})
}

// MembershipUsage reports quota left in the current billing period
func MembershipUsage(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var user model.User
	if err := d.DB.Preload("Membership").Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var usedThisPeriod int64
	err := d.DB.Model(model.Download{}).
		Where("user_id = ? AND created_at >= ?", userID, user.BillingRenewsAt.AddDate(0, -1, 0)).
		Count(&usedThisPeriod).Error
	if err != nil {
		zap.L().Warn("Failed to count period downloads", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"membership":          user.Membership,
		"downloads_remaining": user.DownloadsRemaining,
		"downloads_used":      usedThisPeriod,
		"billing_renews_at":   user.BillingRenewsAt,
	})
}
