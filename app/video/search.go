package video

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var validLimits = []int{10, 20, 50, 100, 250}

func VideoSearch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	searchQuery := strings.ToLower(c.Query("query"))
	if searchQuery == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No search query provided",
			"requestID": requestID,
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "10")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || !slices.Contains(validLimits, limit) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid limit provided",
			"requestID": requestID,
		})
		return
	}

	pageStr := c.DefaultQuery("page", "0")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid page provided",
			"requestID": requestID,
		})
		return
	}

	var results []model.Video

	// Tags are stored comma joined, so a LIKE over the serialized
	// column covers the tag search too
	err = d.DB.
		Preload("Category").
		Where("published = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(tags) LIKE ?", "%"+searchQuery+"%", "%"+searchQuery+"%").
		Order("downloads desc").
		Offset(page * limit).
		Limit(limit).
		Find(&results).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to find videos by search query", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, results)
}
