// Package stream hands out signed, short-lived streaming URLs. Tokens
// keep the player working without re-authenticating every segment
package stream

import (
	"net/http"
	"strconv"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StreamToken mints a playback token for one video. Streaming doesn't
// charge the download quota
func StreamToken(c *gin.Context, d *internal.Deps) {
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

	ttl := time.Duration(viper.GetInt("security.stream_token_ttl_minutes")) * time.Minute
	expires := time.Now().Add(ttl)

	token, err := security.Sign([]byte(viper.GetString("security.stream_secret")), security.SignedToken{
		Scope:     security.ScopeStream,
		Subject:   strconv.FormatUint(uint64(video.ID), 10),
		UserID:    userID,
		ExpiresAt: expires.Unix(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sign stream token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expires.Unix(),
		"url":        "/api/stream/" + strconv.FormatUint(uint64(video.ID), 10) + "?token=" + token,
	})
}

// StreamServe validates the token and redirects to the media. A token
// for a different video is rejected the same as a tampered one
func StreamServe(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	t, err := security.Verify([]byte(viper.GetString("security.stream_secret")), c.Query("token"))
	if err != nil {
		msg := "Invalid stream token"
		if err == security.ErrTokenExpired {
			msg = "Stream token expired"
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     msg,
			"requestID": requestID,
		})
		return
	}

	if t.Scope != security.ScopeStream || t.Subject != c.Param("id") {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":     "Invalid stream token",
			"requestID": requestID,
		})
		return
	}

	var video model.Video
	err = d.DB.
		Where("id = ? AND published = ?", t.Subject, true).
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

	url, err := d.Store.PresignGet(c.Request.Context(), video.FileKey, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to prepare stream",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign stream", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}
