package video

import (
	"net/http"
	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type editBody struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CategoryID  *uint    `json:"category_id"`
	Tags        []string `json:"tags"`
	BPM         *int     `json:"bpm"`
	Published   *bool    `json:"published"`
}

// VideoEdit updates catalog metadata. Only the provided fields change
func VideoEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	videoID := c.Param("id")
	if videoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No video ID provided",
			"requestID": requestID,
		})
		return
	}

	var data editBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	updates := map[string]any{}

	if data.Title != nil {
		if *data.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Title can't be empty",
				"requestID": requestID,
			})
			return
		}
		updates["title"] = *data.Title
	}
	if data.Description != nil {
		updates["description"] = *data.Description
	}
	if data.CategoryID != nil {
		updates["category_id"] = *data.CategoryID
	}
	if data.Tags != nil {
		updates["tags"] = model.StringSlice(data.Tags)
	}
	if data.BPM != nil {
		if *data.BPM < 0 || *data.BPM > 300 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "bpm must be between 0 and 300",
				"requestID": requestID,
			})
			return
		}
		updates["bpm"] = *data.BPM
	}
	if data.Published != nil {
		updates["published"] = *data.Published
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Model(model.Video{}).
		Where("id = ?", videoID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update video", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	var video model.Video
	if err := d.DB.Preload("Category").Where("id = ?", videoID).First(&video).Error; err != nil && err != gorm.ErrRecordNotFound {
		zap.L().Error("Failed to reload video", zap.Error(err))
	}

	c.JSON(http.StatusOK, video)
}
