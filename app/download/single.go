// Package download handles quota-charged video downloads, both single
// files and bulk archives
package download

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DownloadSingle charges one download from the user's quota and
// redirects to a short-lived presigned URL. The quota decrement is a
// guarded UPDATE so concurrent requests can never push it negative
func DownloadSingle(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var video model.Video
	err := d.DB.
		Where("id = ? AND published = ?", c.Param("id"), true).
		First(&video).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Video not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load video", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	res := d.DB.Model(model.User{}).
		Where("id = ? AND downloads_remaining > 0", userID).
		UpdateColumn("downloads_remaining", gorm.Expr("downloads_remaining - ?", 1))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to charge quota", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "Download quota exhausted for this billing period",
			"requestID": requestID,
		})
		return
	}

	url, err := d.Store.PresignGet(c.Request.Context(), video.FileKey, 15*time.Minute)
	if err != nil {
		// The charge is refunded when no URL could be handed out
		d.DB.Model(model.User{}).
			Where("id = ?", userID).
			UpdateColumn("downloads_remaining", gorm.Expr("downloads_remaining + ?", 1))

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to prepare download",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign download", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.Download{UserID: userID, VideoID: video.ID}).Error; err != nil {
			return err
		}
		return tx.Model(model.Video{}).
			Where("id = ?", video.ID).
			UpdateColumn("downloads", gorm.Expr("downloads + ?", 1)).Error
	})
	if err != nil {
		zap.L().Error("Failed to record download", zap.Error(err), zap.Uint("videoID", video.ID))
	}

	metrics.DownloadsTotal.WithLabelValues("single").Inc()

	c.Redirect(http.StatusTemporaryRedirect, url)
}

// DownloadHistory lists the user's past downloads, newest first
func DownloadHistory(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var query struct {
		Page  int `form:"page,default=0"`
		Limit int `form:"limit,default=50"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Page < 0 || query.Limit < 1 || query.Limit > 250 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid pagination parameters",
			"requestID": requestID,
		})
		return
	}

	var total int64
	if err := d.DB.Model(model.Download{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count downloads", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var rows []model.Download
	err := d.DB.Preload("Video").
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

		zap.L().Error("Failed to list downloads", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"downloads": rows,
	})
}
