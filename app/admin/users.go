// Package admin holds the staff-only management surface
package admin

import (
	"net/http"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserList pages through all accounts, optionally filtered by email
// substring or role
func UserList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var query struct {
		Page  int    `form:"page,default=0"`
		Limit int    `form:"limit,default=50"`
		Email string `form:"email"`
		Role  string `form:"role"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Page < 0 || query.Limit < 1 || query.Limit > 250 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid query parameters",
			"requestID": requestID,
		})
		return
	}

	q := d.DB.Model(model.User{})
	if query.Email != "" {
		q = q.Where("email LIKE ?", "%"+query.Email+"%")
	}
	if query.Role != "" {
		q = q.Where("role = ?", query.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count users", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var users []model.User
	err := q.Preload("Membership").
		Order("created_at DESC").
		Offset(query.Page * query.Limit).
		Limit(query.Limit).
		Find(&users).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list users", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"users": users,
	})
}

// UserPatch adjusts account fields staff are allowed to touch. Quota
// grants here don't change the billing anchor
func UserPatch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		Role               *string `json:"role"`
		MembershipID       *uint   `json:"membership_id"`
		DownloadsRemaining *int    `json:"downloads_remaining"`
		Verified           *bool   `json:"verified"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	updates := map[string]any{}

	if data.Role != nil {
		if *data.Role != model.RoleMember && *data.Role != model.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid role",
				"requestID": requestID,
			})
			return
		}
		updates["role"] = *data.Role
	}
	if data.MembershipID != nil {
		var exists int64
		if err := d.DB.Model(model.Membership{}).Where("id = ?", *data.MembershipID).Count(&exists).Error; err != nil || exists == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Membership not found",
				"requestID": requestID,
			})
			return
		}
		updates["membership_id"] = *data.MembershipID
	}
	if data.DownloadsRemaining != nil {
		if *data.DownloadsRemaining < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "downloads_remaining can't be negative",
				"requestID": requestID,
			})
			return
		}
		updates["downloads_remaining"] = *data.DownloadsRemaining
	}
	if data.Verified != nil {
		updates["verified"] = *data.Verified
		if *data.Verified {
			updates["expires_at"] = nil
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Model(model.User{}).
		Where("id = ?", c.Param("id")).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update user", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// UserDelete removes an account and its personal data. Download rows
// go too, analytics only ever aggregates them
func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	userID := c.Param("id")
	if userID == c.MustGet("userID").(string) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "You can't delete your own account from the admin panel",
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := d.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err := d.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&model.VerificationToken{},
			&model.Download{},
			&model.Favorite{},
			&model.Notification{},
			&model.BulkArchive{},
			&model.APIKey{},
		} {
			if err := tx.Where("user_id = ?", user.ID).Delete(m).Error; err != nil {
				return err
			}
		}

		var playlistIDs []uint
		if err := tx.Model(model.Playlist{}).Where("user_id = ?", user.ID).Pluck("id", &playlistIDs).Error; err != nil {
			return err
		}
		if len(playlistIDs) > 0 {
			if err := tx.Where("playlist_id IN ?", playlistIDs).Delete(&model.PlaylistItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", playlistIDs).Delete(&model.Playlist{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	zap.L().Info("User deleted by admin",
		zap.String("userID", user.ID),
		zap.String("adminID", c.MustGet("userID").(string)),
	)

	c.Status(http.StatusOK)
}
