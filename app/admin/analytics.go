package admin

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AnalyticsOverview returns the headline numbers for the dashboard
func AnalyticsOverview(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var (
		users       int64
		verified    int64
		videos      int64
		published   int64
		downloads   int64
		subscribers int64
	)

	for _, q := range []func() error{
		func() error { return d.DB.Model(model.User{}).Count(&users).Error },
		func() error { return d.DB.Model(model.User{}).Where("verified = ?", true).Count(&verified).Error },
		func() error { return d.DB.Model(model.Video{}).Count(&videos).Error },
		func() error { return d.DB.Model(model.Video{}).Where("published = ?", true).Count(&published).Error },
		func() error { return d.DB.Model(model.Download{}).Count(&downloads).Error },
		func() error {
			return d.DB.Model(model.EmailSubscriber{}).Where("is_subscribed = ?", true).Count(&subscribers).Error
		},
	} {
		if err := q(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to compute overview", zap.Error(err), zap.String("requestID", requestID))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"users":              users,
		"verified_users":     verified,
		"videos":             videos,
		"published_videos":   published,
		"downloads":          downloads,
		"subscribers":        subscribers,
		"active_connections": d.Hub.ActiveConnections(),
	})
}

// AnalyticsDownloadsPerDay buckets downloads by calendar day over the
// requested window, 30 days by default
func AnalyticsDownloadsPerDay(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var query struct {
		Days int `form:"days,default=30"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Days < 1 || query.Days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "days must be between 1 and 365",
			"requestID": requestID,
		})
		return
	}

	type bucket struct {
		Day   string `json:"day"`
		Count int64  `json:"count"`
	}

	since := time.Now().AddDate(0, 0, -query.Days)

	var rows []bucket
	err := d.DB.Model(model.Download{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to bucket downloads", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, rows)
}

// AnalyticsTopVideos ranks videos by downloads inside a window
func AnalyticsTopVideos(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var query struct {
		Days  int `form:"days,default=30"`
		Limit int `form:"limit,default=10"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Days < 1 || query.Days > 365 || query.Limit < 1 || query.Limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid query parameters",
			"requestID": requestID,
		})
		return
	}

	type row struct {
		VideoID uint   `json:"video_id"`
		Title   string `json:"title"`
		Count   int64  `json:"count"`
	}

	since := time.Now().AddDate(0, 0, -query.Days)

	var rows []row
	err := d.DB.Model(model.Download{}).
		Select("downloads.video_id, videos.title, COUNT(*) AS count").
		Joins("JOIN videos ON videos.id = downloads.video_id").
		Where("downloads.created_at >= ?", since).
		Group("downloads.video_id, videos.title").
		Order("count DESC").
		Limit(query.Limit).
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to rank videos", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, rows)
}

// AnalyticsCampaigns reports delivery rates per campaign
func AnalyticsCampaigns(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var campaigns []model.EmailCampaign
	err := d.DB.
		Where("status IN ?", []string{model.CampaignSending, model.CampaignSent}).
		Order("created_at DESC").
		Find(&campaigns).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list campaigns", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	type row struct {
		model.EmailCampaign
		DeliveryRate float64 `json:"delivery_rate"`
	}

	rows := make([]row, 0, len(campaigns))
	for _, campaign := range campaigns {
		r := row{EmailCampaign: campaign}
		if total := campaign.SentCount + campaign.FailedCount; total > 0 {
			r.DeliveryRate = float64(campaign.SentCount) / float64(total)
		}
		rows = append(rows, r)
	}

	c.JSON(http.StatusOK, rows)
}
