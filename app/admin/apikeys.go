package admin

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/pkg/middleware"
	"thevideopool/pool-api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIKeyCreate mints a new integration key. The plaintext appears in
// this response and nowhere else, only the hash is stored
func APIKeyCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	plaintext := middleware.KeyPrefix + util.RandStr(40)

	key := model.APIKey{
		KeyHash: middleware.HashAPIKey(plaintext),
		Label:   data.Label,
		UserID:  userID,
		Active:  true,
	}

	if err := d.DB.Create(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create API key", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":       plaintext,
		"id":        key.ID,
		"label":     key.Label,
		"created_at": key.CreatedAt,
	})
}

func APIKeyList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var keys []model.APIKey
	if err := d.DB.Order("created_at DESC").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list API keys", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, keys)
}

// APIKeyDeactivate kills a key. The auth cache holds it for up to a
// minute longer, after that every request with it fails
func APIKeyDeactivate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	res := d.DB.Model(model.APIKey{}).
		Where("id = ? AND active = ?", c.Param("id"), true).
		Update("active", false)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to deactivate API key", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "API key not found or already inactive",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// APIKeyUsage summarizes recent traffic for one key
func APIKeyUsage(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var query struct {
		Days int `form:"days,default=7"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Days < 1 || query.Days > 90 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "days must be between 1 and 90",
			"requestID": requestID,
		})
		return
	}

	type row struct {
		Route  string `json:"route"`
		Status int    `json:"status"`
		Count  int64  `json:"count"`
	}

	since := time.Now().AddDate(0, 0, -query.Days)

	var rows []row
	err := d.DB.Model(model.APIUsage{}).
		Select("route, status, COUNT(*) AS count").
		Where("api_key_id = ? AND created_at >= ?", c.Param("id"), since).
		Group("route, status").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to summarize API usage", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, rows)
}
