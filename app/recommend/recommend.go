// Package recommend builds a simple personal feed from download
// history. No ML involved, category affinity plus popularity
package recommend

import (
	"net/http"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const feedSize = 20

// Recommend returns videos from the user's most-downloaded categories,
// excluding everything they already have. A fresh account with no
// history falls back to the global top list
func Recommend(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var topCategories []uint
	err := d.DB.Model(model.Download{}).
		Select("videos.category_id").
		Joins("JOIN videos ON videos.id = downloads.video_id").
		Where("downloads.user_id = ?", userID).
		Group("videos.category_id").
		Order("COUNT(*) DESC").
		Limit(3).
		Scan(&topCategories).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to rank categories", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	downloaded := d.DB.Model(model.Download{}).
		Select("video_id").
		Where("user_id = ?", userID)

	var videos []model.Video

	if len(topCategories) > 0 {
		err = d.DB.Preload("Category").
			Where("published = ? AND category_id IN ?", true, topCategories).
			Where("id NOT IN (?)", downloaded).
			Order("downloads DESC").
			Limit(feedSize).
			Find(&videos).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to build recommendations", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	// Backfill with the global top so the feed is never short
	if len(videos) < feedSize {
		seen := make([]uint, 0, len(videos))
		for _, v := range videos {
			seen = append(seen, v.ID)
		}

		q := d.DB.Preload("Category").
			Where("published = ?", true).
			Where("id NOT IN (?)", downloaded).
			Order("downloads DESC").
			Limit(feedSize - len(videos))
		if len(seen) > 0 {
			q = q.Where("id NOT IN ?", seen)
		}

		var fill []model.Video
		if err := q.Find(&fill).Error; err != nil {
			zap.L().Warn("Failed to backfill recommendations", zap.Error(err))
		}

		videos = append(videos, fill...)
	}

	c.JSON(http.StatusOK, videos)
}
