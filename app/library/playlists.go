package library

import (
	"net/http"
	"strconv"
	"strings"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// loadOwned fetches a playlist owned by the user. Someone else's
// playlist looks like a 404, existence isn't leaked
func loadOwned(d *internal.Deps, userID, playlistID string) (*model.Playlist, error) {
	var p model.Playlist
	err := d.DB.
		Where("id = ? AND user_id = ?", playlistID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func PlaylistCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	p := model.Playlist{
		UserID:      userID,
		Name:        data.Name,
		Description: data.Description,
		Public:      data.Public,
	}

	if err := d.DB.Create(&p).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create playlist", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, p)
}

func PlaylistList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var playlists []model.Playlist
	err := d.DB.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&playlists).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list playlists", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, playlists)
}

// PlaylistFetch returns one playlist with its items in order
func PlaylistFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var p model.Playlist
	err := d.DB.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("playlist_items.position ASC")
		}).
		Preload("Items.Video").
		Where("id = ? AND (user_id = ? OR public = ?)", c.Param("id"), userID, true).
		First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Playlist not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load playlist", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, p)
}

func PlaylistEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Public      *bool   `json:"public"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	updates := map[string]any{}
	if data.Name != nil {
		if *data.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Name can't be empty",
				"requestID": requestID,
			})
			return
		}
		updates["name"] = *data.Name
	}
	if data.Description != nil {
		updates["description"] = *data.Description
	}
	if data.Public != nil {
		updates["public"] = *data.Public
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Model(model.Playlist{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update playlist", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Playlist not found",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// PlaylistDelete removes a playlist and all its items
func PlaylistDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	p, err := loadOwned(d, userID, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Playlist not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load playlist", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", p.ID).Delete(&model.PlaylistItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete playlist", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusOK)
}

// PlaylistAddItem appends a video to the playlist. Position is the
// next free slot unless one is given
func PlaylistAddItem(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data struct {
		VideoID  uint `json:"video_id" binding:"required"`
		Position *int `json:"position"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	p, err := loadOwned(d, userID, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Playlist not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load playlist", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var exists int64
	if err := d.DB.Model(model.Video{}).
		Where("id = ? AND published = ?", data.VideoID, true).
		Count(&exists).Error; err != nil || exists == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video not found",
			"requestID": requestID,
		})
		return
	}

	position := 0
	if data.Position != nil {
		position = *data.Position
	} else {
		var maxPos *int
		d.DB.Model(model.PlaylistItem{}).
			Where("playlist_id = ?", p.ID).
			Select("MAX(position)").
			Scan(&maxPos)
		if maxPos != nil {
			position = *maxPos + 1
		}
	}

	item := model.PlaylistItem{
		PlaylistID: p.ID,
		VideoID:    data.VideoID,
		Position:   position,
	}

	if err := d.DB.Create(&item).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "Video is already in this playlist",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to add playlist item", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, item)
}

func PlaylistRemoveItem(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	p, err := loadOwned(d, userID, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Playlist not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load playlist", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	videoID, err := strconv.ParseUint(c.Param("videoId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid video ID",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.
		Where("playlist_id = ? AND video_id = ?", p.ID, videoID).
		Delete(&model.PlaylistItem{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove playlist item", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Video is not in this playlist",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}
