package admin

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClaimList pages through copyright claims, open ones first
func ClaimList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	q := d.DB.Model(model.CopyrightClaim{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var claims []model.CopyrightClaim
	err := q.Order("CASE WHEN status = 'open' THEN 0 ELSE 1 END, created_at DESC").
		Find(&claims).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list claims", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, claims)
}

// ClaimFile records a new copyright claim against a video
func ClaimFile(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		VideoID       uint   `json:"video_id" binding:"required"`
		ClaimantEmail string `json:"claimant_email" binding:"required"`
		Description   string `json:"description"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.ClaimantEmail); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	var exists int64
	if err := d.DB.Model(model.Video{}).Where("id = ?", data.VideoID).Count(&exists).Error; err != nil || exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	claim := model.CopyrightClaim{
		VideoID:       data.VideoID,
		ClaimantEmail: data.ClaimantEmail,
		Description:   data.Description,
		Status:        model.ClaimOpen,
	}

	if err := d.DB.Create(&claim).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to file claim", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, claim)
}

// ClaimResolve moves a claim to its final state. An upheld claim pulls
// the video from the catalog immediately
func ClaimResolve(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	adminID := c.MustGet("userID").(string)

	var data struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Status != model.ClaimReviewing && data.Status != model.ClaimUpheld && data.Status != model.ClaimRejected {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "status must be reviewing, upheld or rejected",
			"requestID": requestID,
		})
		return
	}

	var claim model.CopyrightClaim
	err := d.DB.Where("id = ?", c.Param("id")).First(&claim).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Claim not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load claim", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if claim.Status == model.ClaimUpheld || claim.Status == model.ClaimRejected {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Claim is already resolved",
			"requestID": requestID,
		})
		return
	}

	updates := map[string]any{"status": data.Status}
	if data.Status != model.ClaimReviewing {
		now := time.Now()
		updates["resolved_by"] = adminID
		updates["resolved_at"] = &now
	}

	err = d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&claim).Updates(updates).Error; err != nil {
			return err
		}

		if data.Status == model.ClaimUpheld {
			return tx.Model(model.Video{}).
				Where("id = ?", claim.VideoID).
				Update("published", false).Error
		}

		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to resolve claim", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Status != model.ClaimReviewing {
		// Users who downloaded the video hear about the outcome
		var userIDs []string
		err := d.DB.Model(model.Download{}).
			Distinct("user_id").
			Where("video_id = ?", claim.VideoID).
			Pluck("user_id", &userIDs).Error
		if err != nil {
			zap.L().Warn("Failed to collect claim audience", zap.Error(err))
		}

		title := "Copyright claim resolved"
		body := "A copyright claim on a video in your download history was rejected."
		if data.Status == model.ClaimUpheld {
			body = "A video in your download history was removed after a copyright claim was upheld."
		}

		for _, uid := range userIDs {
			service.Notify(d.DB, d.Hub, uid, model.NotifClaimResolved, title, body)
		}
	}

	c.Status(http.StatusOK)
}

// RightList shows the license records for one video
func RightList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var rights []model.ContentRight
	err := d.DB.Where("video_id = ?", c.Param("id")).Find(&rights).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list rights", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, rights)
}

// RightCreate attaches a license record to a video
func RightCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		LicenseType  string     `json:"license_type" binding:"required"`
		RightsHolder string     `json:"rights_holder" binding:"required"`
		Notes        string     `json:"notes"`
		ExpiresAt    *time.Time `json:"expires_at"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	var video model.Video
	if err := d.DB.Where("id = ?", c.Param("id")).First(&video).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	right := model.ContentRight{
		VideoID:      video.ID,
		LicenseType:  data.LicenseType,
		RightsHolder: data.RightsHolder,
		Notes:        data.Notes,
		ExpiresAt:    data.ExpiresAt,
	}

	if err := d.DB.Create(&right).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create right", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, right)
}

// AnalysisGet returns the stored tagger output for a video
func AnalysisGet(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var result model.ContentAnalysisResult
	err := d.DB.Where("video_id = ?", c.Param("id")).First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Video has not been analyzed yet",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load analysis", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, result)
}

// AnalysisRun re-runs the tagger on a video and returns the fresh
// result
func AnalysisRun(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var video model.Video
	err := d.DB.Where("id = ?", c.Param("id")).First(&video).Error
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

	result, err := service.AnalyzeVideo(d.DB, &video)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Analysis failed",
			"requestID": requestID,
		})

		zap.L().Error("Failed to analyze video", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, result)
}
