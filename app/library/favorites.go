// Package library covers the user's personal collection, favorites
// and playlists
package library

import (
	"net/http"
	"strconv"
	"strings"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FavoriteAdd marks a video as a favorite. Doing it twice is a
// conflict, the unique index is the source of truth
func FavoriteAdd(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	videoID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid video ID",
			"requestID": requestID,
		})
		return
	}

	var exists int64
	if err := d.DB.Model(model.Video{}).
		Where("id = ? AND published = ?", videoID, true).
		Count(&exists).Error; err != nil || exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	fav := model.Favorite{UserID: userID, VideoID: uint(videoID)}
	if err := d.DB.Create(&fav).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Video is already in your favorites",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to add favorite", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusCreated)
}

// FavoriteRemove deletes a favorite. Removing a video that isn't
// favorited is a 404
func FavoriteRemove(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	res := d.DB.
		Where("user_id = ? AND video_id = ?", userID, c.Param("id")).
		Delete(&model.Favorite{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove favorite", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video is not in your favorites",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// FavoriteList returns the user's favorites, newest first
func FavoriteList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var favs []model.Favorite
	err := d.DB.Preload("Video").Preload("Video.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list favorites", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, favs)
}
