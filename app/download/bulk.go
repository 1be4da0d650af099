package download

import (
	"fmt"
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DownloadBulk queues a bulk archive build. The zip is assembled in
// the background, each included video is charged against the quota by
// the builder, never up front
func DownloadBulk(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data struct {
		VideoIDs []uint `json:"video_ids" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil || len(data.VideoIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No video IDs provided",
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := d.DB.Preload("Membership").Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if limit := user.Membership.BulkLimit; len(data.VideoIDs) > limit {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     fmt.Sprintf("Your membership allows at most %d videos per archive", limit),
			"requestID": requestID,
		})
		return
	}

	archive := model.BulkArchive{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: model.ArchivePending,
	}

	if err := d.DB.Create(&archive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create archive row", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	task, err := service.NewArchiveBuildTask(archive.ID, data.VideoIDs)
	if err == nil {
		_, err = d.Tasks.Enqueue(task)
	}
	if err != nil {
		d.DB.Model(model.BulkArchive{}).
			Where("id = ?", archive.ID).
			Updates(map[string]any{"status": model.ArchiveFailed, "error": "failed to queue build"})

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to queue archive build",
			"requestID": requestID,
		})

		zap.L().Error("Failed to enqueue archive build", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusAccepted, archive)
}

// DownloadBulkStatus reports build progress. Once the archive is ready
// the response carries a signed, time-limited fetch token
func DownloadBulkStatus(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var archive model.BulkArchive
	err := d.DB.
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&archive).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Archive not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load archive", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	resp := gin.H{"archive": archive}

	if archive.Status == model.ArchiveReady {
		token, err := security.Sign([]byte(viper.GetString("security.stream_secret")), security.SignedToken{
			Scope:     security.ScopeArchive,
			Subject:   archive.ID,
			UserID:    userID,
			ExpiresAt: archive.ExpiresAt.Unix(),
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to sign archive token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		resp["url"] = "/api/downloads/bulk/" + archive.ID + "/file?token=" + token
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadBulkFile serves a finished archive from local disk. Access
// is by signed token alone so the link can be opened outside the app
func DownloadBulkFile(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	t, err := security.Verify([]byte(viper.GetString("security.stream_secret")), c.Query("token"))
	if err != nil {
		status := http.StatusUnauthorized
		msg := "Invalid archive token"
		if err == security.ErrTokenExpired {
			msg = "Archive link expired"
		}

		c.JSON(status, gin.H{
			"error":     msg,
			"requestID": requestID,
		})
		return
	}

	if t.Scope != security.ScopeArchive || t.Subject != c.Param("id") {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid archive token",
			"requestID": requestID,
		})
		return
	}

	var archive model.BulkArchive
	err = d.DB.
		Where("id = ? AND status = ?", t.Subject, model.ArchiveReady).
		First(&archive).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Archive not found or no longer available",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load archive", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if time.Now().After(archive.ExpiresAt) {
		c.JSON(http.StatusGone, gin.H{
			"error":     "Archive expired",
			"requestID": requestID,
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="thevideopool_%s.zip"`, archive.ID[:8]))
	c.File(archive.Path)
}
