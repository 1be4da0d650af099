package video

import (
	"net/http"
	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func VideoFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	videoID := c.Param("id")
	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No video ID provided",
			"requestID": requestID,
		})
		return
	}

	var video model.Video

	err := d.DB.
		Preload("Category").
		Where("id = ? AND published = ?", videoID, true).
		First(&video).
		Error
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

		zap.L().Error("Failed to fetch video from db", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, video)
}

// VideoPreview redirects to a short lived URL for the watermarked
// preview clip. No membership needed, this is the shop window
func VideoPreview(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	videoID := c.Param("id")

	var video model.Video

	err := d.DB.
		Where("id = ? AND published = ?", videoID, true).
		First(&video).
		Error
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

		zap.L().Error("Failed to fetch video from db", zap.Error(err))
		return
	}

	if video.PreviewKey == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "No preview available for this video",
			"requestID": requestID,
		})
		return
	}

	url, err := d.Store.PresignGet(c.Request.Context(), video.PreviewKey, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign preview", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}
