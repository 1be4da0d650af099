package category

import (
	"net/http"
	"strings"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CategoryList returns every category with a count of published videos
func CategoryList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	type row struct {
		model.Category
		VideoCount int64 `json:"video_count"`
	}

	var rows []row
	err := d.DB.Model(model.Category{}).
		Select("categories.*, (?) AS video_count",
			d.DB.Model(model.Video{}).
				Select("COUNT(*)").
				Where("videos.category_id = categories.id AND videos.published = ?", true),
		).
		Order("categories.name ASC").
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list categories", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, rows)
}

type categoryBody struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, s)

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}

	return strings.Trim(s, "-")
}

// CategoryCreate adds a new category. Slugs derive from the name and
// must be unique
func CategoryCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data categoryBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	slug := slugify(data.Name)
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Category name must contain letters or digits",
			"requestID": requestID,
		})
		return
	}

	cat := model.Category{
		Name:        data.Name,
		Slug:        slug,
		Description: data.Description,
	}

	if err := d.DB.Create(&cat).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate") {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "A category with that name already exists",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create category", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, cat)
}

// CategoryEdit renames a category or updates its description
func CategoryEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
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
		slug := slugify(*data.Name)
		if slug == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Category name must contain letters or digits",
				"requestID": requestID,
			})
			return
		}
		updates["name"] = *data.Name
		updates["slug"] = slug
	}
	if data.Description != nil {
		updates["description"] = *data.Description
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Nothing to update",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Model(model.Category{}).
		Where("id = ?", c.Param("id")).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update category", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Category not found",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// CategoryDelete removes an empty category. Categories that still hold
// videos return a conflict so the admin reassigns them first
func CategoryDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	catID := c.Param("id")

	var count int64
	if err := d.DB.Model(model.Video{}).Where("category_id = ?", catID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count category videos", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Category still has videos assigned to it",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Where("id = ?", catID).Delete(&model.Category{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete category", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Category not found",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}
