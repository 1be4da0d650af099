package video

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bulkItem struct {
	FileKey     string   `json:"file_key"`
	ThumbKey    string   `json:"thumb_key"`
	PreviewKey  string   `json:"preview_key"`
	Title       string   `json:"title"`
	CategoryID  uint     `json:"category_id"`
	Tags        []string `json:"tags"`
	BPM         int      `json:"bpm"`
	Resolution  string   `json:"resolution"`
	DurationSec float64  `json:"duration_sec"`
	Format      string   `json:"format"`
	SizeBytes   int64    `json:"size_bytes"`
}

type bulkResult struct {
	FileKey string `json:"file_key"`
	VideoID uint   `json:"video_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VideoBulkUpload ingests a manifest of already uploaded objects. Each
// item is validated and created independently, so one bad row doesn't
// fail the batch
func VideoBulkUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		Items []bulkItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if len(data.Items) == 0 || len(data.Items) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Manifest must contain between 1 and 100 items",
			"requestID": requestID,
		})
		return
	}

	results := make([]bulkResult, 0, len(data.Items))
	created := 0

	for _, item := range data.Items {
		r := bulkResult{FileKey: item.FileKey}

		if item.FileKey == "" {
			r.Error = "missing file_key"
			results = append(results, r)
			continue
		}

		in := validators.VideoInput{
			Title:      item.Title,
			FileKey:    item.FileKey,
			CategoryID: item.CategoryID,
			BPM:        item.BPM,
			Format:     item.Format,
		}
		if err := validators.VideoValidator(in); err != nil {
			r.Error = err.Error()
			results = append(results, r)
			continue
		}

		video := model.Video{
			Title:       item.Title,
			CategoryID:  item.CategoryID,
			Tags:        model.StringSlice(item.Tags),
			BPM:         item.BPM,
			Resolution:  item.Resolution,
			DurationSec: item.DurationSec,
			Format:      item.Format,
			SizeBytes:   item.SizeBytes,
			FileKey:     item.FileKey,
			ThumbKey:    item.ThumbKey,
			PreviewKey:  item.PreviewKey,
			CreatedAt:   time.Now().Unix(),
		}

		if err := d.DB.Create(&video).Error; err != nil {
			zap.L().Error("Failed to create video from manifest",
				zap.Error(err),
				zap.String("fileKey", item.FileKey),
				zap.String("requestID", requestID),
			)

			r.Error = "failed to create video"
			results = append(results, r)
			continue
		}

		if _, err := service.AnalyzeVideo(d.DB, &video); err != nil {
			zap.L().Warn("Auto analysis failed", zap.Error(err), zap.Uint("videoID", video.ID))
		}

		r.VideoID = video.ID
		results = append(results, r)
		created++
	}

	c.JSON(http.StatusCreated, gin.H{
		"created": created,
		"results": results,
	})
}
