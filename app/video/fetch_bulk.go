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

// AZ = A - Z as in alphabetic same for ZA
var validSortOpts = []string{"newest", "oldest", "az", "za", "downloads"}

// VideoFetchBulk is the main browse endpoint. Members only ever see
// published videos, the unpublished rest exists for the back office
func VideoFetchBulk(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	pageStr := c.DefaultQuery("page", "0")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid page provided",
			"requestID": requestID,
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "25")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 250 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Limit must be between 1 and 250",
			"requestID": requestID,
		})
		return
	}

	sort := strings.ToLower(c.DefaultQuery("sort", "newest"))
	if !slices.Contains(validSortOpts, sort) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid sorting option",
			"requestID": requestID,
		})
		return
	}

	order := ""

	switch sort {
	case "newest":
		order = "created_at desc"
	case "oldest":
		order = "created_at asc"
	case "az":
		order = "title"
	case "za":
		order = "title desc"
	case "downloads":
		order = "downloads desc"
	}

	q := d.DB.
		Preload("Category").
		Where("published = ?", true)

	if catStr := c.Query("category"); catStr != "" {
		catID, err := strconv.Atoi(catStr)
		if err != nil || catID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid category provided",
				"requestID": requestID,
			})
			return
		}

		q = q.Where("category_id = ?", catID)
	}

	if minStr := c.Query("bpm_min"); minStr != "" {
		bpmMin, err := strconv.Atoi(minStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "bpm_min must be a number",
				"requestID": requestID,
			})
			return
		}
		q = q.Where("bpm >= ?", bpmMin)
	}

	if maxStr := c.Query("bpm_max"); maxStr != "" {
		bpmMax, err := strconv.Atoi(maxStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "bpm_max must be a number",
				"requestID": requestID,
			})
			return
		}
		q = q.Where("bpm <= ?", bpmMax)
	}

	var entries []model.Video

	err = q.
		Order(order).
		Offset(page * limit).
		Limit(limit).
		Find(&entries).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})
		zap.L().Error("Failed to lookup videos", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, entries)
}
