package video

import (
	"net/http"
	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/pkg/validators"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	FileKey     string   `json:"file_key"`
	ThumbKey    string   `json:"thumb_key"`
	PreviewKey  string   `json:"preview_key"`
	CategoryID  uint     `json:"category_id"`
	Tags        []string `json:"tags"`
	BPM         int      `json:"bpm"`
	Resolution  string   `json:"resolution"`
	Format      string   `json:"format"`
	DurationSec float64  `json:"duration_sec"`
	SizeBytes   int64    `json:"size_bytes"`
	Published   bool     `json:"published"`
}

// VideoCreate registers an already uploaded media object as a catalog
// entry. Admin only
func VideoCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data createBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.VideoValidator(validators.VideoInput{
		Title:      data.Title,
		FileKey:    data.FileKey,
		CategoryID: data.CategoryID,
		BPM:        data.BPM,
		Format:     data.Format,
	}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	video := model.Video{
		Title:       data.Title,
		Description: data.Description,
		FileKey:     data.FileKey,
		ThumbKey:    data.ThumbKey,
		PreviewKey:  data.PreviewKey,
		CategoryID:  data.CategoryID,
		Tags:        data.Tags,
		BPM:         data.BPM,
		Resolution:  data.Resolution,
		Format:      data.Format,
		DurationSec: data.DurationSec,
		SizeBytes:   data.SizeBytes,
		Published:   data.Published,
		CreatedAt:   time.Now().Unix(),
	}

	if err := d.DB.Create(&video).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create video", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Tag suggestions are filled in right away so moderators see them
	// on the first review pass
	if _, err := service.AnalyzeVideo(d.DB, &video); err != nil {
		zap.L().Warn("Failed to analyze new video", zap.Error(err), zap.Uint("video_id", video.ID))
	}

	c.JSON(http.StatusCreated, video)
}
