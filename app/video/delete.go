package video

import (
	"net/http"
	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VideoDelete removes a video and its stored objects. Download history
// rows stay so usage analytics keep working
func VideoDelete(c *gin.Context, d *internal.Deps) {
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
	if err := d.DB.Where("id = ?", videoID).First(&video).Error; err != nil {
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

	keys := make([]string, 0, 3)
	for _, k := range []string{video.FileKey, video.ThumbKey, video.PreviewKey} {
		if k != "" {
			keys = append(keys, k)
		}
	}

	if len(keys) != 0 {
		if err := d.Store.Delete(c.Request.Context(), keys...); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Failed to delete stored files",
				"requestID": requestID,
			})

			zap.L().Error("Failed to delete video objects", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	err := d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", video.ID).Delete(&model.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", video.ID).Delete(&model.PlaylistItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&video).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete video", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusOK)
}
