package admin

import (
	"net/http"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type campaignBody struct {
	Name        string `json:"name" binding:"required"`
	Subject     string `json:"subject" binding:"required"`
	Body        string `json:"body" binding:"required"`
	Segment     string `json:"segment"`
	RatePerHour int    `json:"rate_per_hour"`
}

// CampaignCreate saves a new draft
func CampaignCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data campaignBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Segment == "" {
		data.Segment = model.SegmentAll
	}
	if data.RatePerHour == 0 {
		data.RatePerHour = viper.GetInt("campaigns.default_rate_per_hour")
	}

	if err := validators.CampaignValidator(validators.CampaignInput{
		Name:        data.Name,
		Subject:     data.Subject,
		Body:        data.Body,
		Segment:     data.Segment,
		RatePerHour: data.RatePerHour,
	}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	campaign := model.EmailCampaign{
		Name:        data.Name,
		Subject:     data.Subject,
		Body:        data.Body,
		Segment:     data.Segment,
		Status:      model.CampaignDraft,
		RatePerHour: data.RatePerHour,
	}

	if err := d.DB.Create(&campaign).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create campaign", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func CampaignList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var campaigns []model.EmailCampaign
	if err := d.DB.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list campaigns", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// CampaignFetch returns one campaign plus its delivery breakdown
func CampaignFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var campaign model.EmailCampaign
	if err := d.DB.First(&campaign, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Campaign not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load campaign", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var counts []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	if err := d.DB.Model(model.EmailSend{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaign.ID).
		Group("status").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count campaign sends", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var sent, failed int64
	for _, row := range counts {
		switch row.Status {
		case model.SendSent:
			sent = row.Count
		case model.SendFailed:
			failed = row.Count
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"campaign": campaign,
		"sent":     sent,
		"failed":   failed,
	})
}

// CampaignEdit rewrites a campaign. Only drafts can change, anything
// queued or later is immutable
func CampaignEdit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data campaignBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Segment == "" {
		data.Segment = model.SegmentAll
	}
	if data.RatePerHour == 0 {
		data.RatePerHour = viper.GetInt("campaigns.default_rate_per_hour")
	}

	if err := validators.CampaignValidator(validators.CampaignInput{
		Name:        data.Name,
		Subject:     data.Subject,
		Body:        data.Body,
		Segment:     data.Segment,
		RatePerHour: data.RatePerHour,
	}); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Model(model.EmailCampaign{}).
		Where("id = ? AND status = ?", c.Param("id"), model.CampaignDraft).
		Updates(map[string]any{
			"name":          data.Name,
			"subject":       data.Subject,
			"body":          data.Body,
			"segment":       data.Segment,
			"rate_per_hour": data.RatePerHour,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update campaign", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Campaign not found or no longer a draft",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

func loadCampaign(d *internal.Deps, id string) (*model.EmailCampaign, error) {
	var campaign model.EmailCampaign
	if err := d.DB.Where("id = ?", id).First(&campaign).Error; err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CampaignSend queues immediate delivery of a draft or scheduled
// campaign. Actual sending happens in the background worker
func CampaignSend(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	campaign, err := loadCampaign(d, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Campaign not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to load campaign", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if campaign.Status != model.CampaignDraft && campaign.Status != model.CampaignScheduled {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Campaign has already been sent or cancelled",
			"requestID": requestID,
		})
		return
	}

	task, err := service.NewCampaignDeliverTask(campaign.ID)
	if err == nil {
		_, err = d.Tasks.Enqueue(task)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to queue campaign delivery",
			"requestID": requestID,
		})

		zap.L().Error("Failed to enqueue campaign", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// CampaignSchedule queues delivery for a future time. The task sits in
// redis until then, a restart doesn't lose it
func CampaignSchedule(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data struct {
		ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	}
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.ScheduledAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "scheduled_at must be in the future",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Model(model.EmailCampaign{}).
		Where("id = ? AND status = ?", c.Param("id"), model.CampaignDraft).
		Updates(map[string]any{
			"status":       model.CampaignScheduled,
			"scheduled_at": data.ScheduledAt,
		})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to schedule campaign", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Campaign not found or no longer a draft",
			"requestID": requestID,
		})
		return
	}

	campaign, err := loadCampaign(d, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to reload campaign", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	task, err := service.NewCampaignDeliverTask(campaign.ID)
	if err == nil {
		_, err = d.Tasks.Enqueue(task, asynq.ProcessAt(data.ScheduledAt))
	}
	if err != nil {
		// Roll the status back so the admin can retry
		d.DB.Model(model.EmailCampaign{}).
			Where("id = ?", campaign.ID).
			Updates(map[string]any{"status": model.CampaignDraft, "scheduled_at": nil})

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to queue campaign delivery",
			"requestID": requestID,
		})

		zap.L().Error("Failed to enqueue scheduled campaign", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// CampaignCancel withdraws a scheduled campaign. The worker re-checks
// the status before sending, so the stale redis task is harmless
func CampaignCancel(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	res := d.DB.Model(model.EmailCampaign{}).
		Where("id = ? AND status = ?", c.Param("id"), model.CampaignScheduled).
		Update("status", model.CampaignCancelled)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to cancel campaign", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Only scheduled campaigns can be cancelled",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusOK)
}

// SubscriberList pages through the newsletter audience
func SubscriberList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var query struct {
		Page       int   `form:"page,default=0"`
		Limit      int   `form:"limit,default=100"`
		Subscribed *bool `form:"subscribed"`
	}
	if err := c.ShouldBindQuery(&query); err != nil || query.Page < 0 || query.Limit < 1 || query.Limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid query parameters",
			"requestID": requestID,
		})
		return
	}

	q := d.DB.Model(model.EmailSubscriber{})
	if query.Subscribed != nil {
		q = q.Where("is_subscribed = ?", *query.Subscribed)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count subscribers", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	var subs []model.EmailSubscriber
	err := q.Order("subscribed_at DESC").
		Offset(query.Page * query.Limit).
		Limit(query.Limit).
		Find(&subs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list subscribers", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"subscribers": subs,
	})
}
