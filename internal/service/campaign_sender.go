package service

import (
	"context"
	"fmt"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/pkg/metrics"
	"thevideopool/pool-api/pkg/security"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CampaignSender drains one campaign at the configured rate. Sends are
// sequential on purpose, the rate cap is the whole point and mail
// providers throttle hard when it's ignored
type CampaignSender struct {
	DB     *gorm.DB
	Mailer Mailer

	// Sleep is swapped out in tests so they don't take an hour
	Sleep func(time.Duration)
}

func NewCampaignSender(db *gorm.DB, m Mailer) *CampaignSender {
	return &CampaignSender{
		DB:     db,
		Mailer: m,
		Sleep:  time.Sleep,
	}
}

// Deliver runs a campaign to completion. Safe to call on a cancelled
// campaign, it just returns without sending anything
func (s *CampaignSender) Deliver(ctx context.Context, campaignID uint) error {
	var campaign model.EmailCampaign

	err := s.DB.Where("id = ?", campaignID).First(&campaign).Error
	if err != nil {
		return fmt.Errorf("failed to load campaign %d, %w", campaignID, err)
	}

	// A scheduled task can fire after the admin cancelled or already
	// sent the campaign. "sending" is accepted too, a worker restart
	// redelivers the task and the batch must resume where it stopped
	res := s.DB.Model(model.EmailCampaign{}).
		Where("id = ? AND status IN ?", campaignID,
			[]string{model.CampaignDraft, model.CampaignScheduled, model.CampaignSending}).
		Update("status", model.CampaignSending)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		zap.L().Info("Campaign not in a sendable state, skipping",
			zap.Uint("campaign_id", campaignID),
			zap.String("status", campaign.Status))
		return nil
	}

	recipients, err := s.Recipients(campaign.Segment)
	if err != nil {
		return fmt.Errorf("failed to resolve campaign segment, %w", err)
	}

	// Every attempt leaves an EmailSend row, so on a resumed run those
	// addresses are dropped and nobody is mailed twice
	var attempted []string
	err = s.DB.Model(model.EmailSend{}).
		Where("campaign_id = ?", campaignID).
		Pluck("email", &attempted).
		Error
	if err != nil {
		return fmt.Errorf("failed to load prior sends, %w", err)
	}

	if len(attempted) > 0 {
		done := make(map[string]struct{}, len(attempted))
		for _, e := range attempted {
			done[e] = struct{}{}
		}

		remaining := recipients[:0]
		for _, e := range recipients {
			if _, ok := done[e]; !ok {
				remaining = append(remaining, e)
			}
		}
		recipients = remaining
	}

	rate := campaign.RatePerHour
	if rate <= 0 {
		rate = viper.GetInt("campaigns.default_rate_per_hour")
	}
	delay := time.Hour / time.Duration(rate)

	zap.L().Info("Campaign delivery starting",
		zap.Uint("campaign_id", campaignID),
		zap.Int("recipients", len(recipients)),
		zap.Duration("delay_between_sends", delay))

	for i, email := range recipients {
		select {
		case <-ctx.Done():
			// The worker is shutting down. Leave the campaign in
			// "sending" so a redelivered task picks it back up
			return ctx.Err()
		default:
		}

		if i > 0 {
			s.Sleep(delay)
		}

		send := model.EmailSend{
			CampaignID: campaign.ID,
			Email:      email,
			Status:     model.SendSent,
			SentAt:     time.Now(),
		}

		err := s.Mailer.Send(email, campaign.Subject, s.withFooter(campaign.Body, email))
		if err != nil {
			send.Status = model.SendFailed
			send.Error = err.Error()

			zap.L().Warn("Campaign send failed",
				zap.Uint("campaign_id", campaignID),
				zap.String("email", email),
				zap.Error(err))
		}

		metrics.CampaignEmailsTotal.WithLabelValues(send.Status).Inc()

		if err := s.DB.Create(&send).Error; err != nil {
			zap.L().Error("Failed to record email send", zap.Error(err))
		}
	}

	// Totals come from the EmailSend rows, not this run's counters, so
	// a resumed batch still ends with the full numbers
	var sentTotal, failedTotal int64
	err = s.DB.Model(model.EmailSend{}).
		Where("campaign_id = ? AND status = ?", campaignID, model.SendSent).
		Count(&sentTotal).
		Error
	if err == nil {
		err = s.DB.Model(model.EmailSend{}).
			Where("campaign_id = ? AND status = ?", campaignID, model.SendFailed).
			Count(&failedTotal).
			Error
	}
	if err != nil {
		return fmt.Errorf("failed to count campaign sends, %w", err)
	}

	err = s.DB.Model(model.EmailCampaign{}).
		Where("id = ?", campaignID).
		Updates(map[string]any{
			"status":       model.CampaignSent,
			"sent_count":   sentTotal,
			"failed_count": failedTotal,
		}).
		Error
	if err != nil {
		return fmt.Errorf("failed to finalize campaign, %w", err)
	}

	zap.L().Info("Campaign delivery finished",
		zap.Uint("campaign_id", campaignID),
		zap.Int64("sent", sentTotal),
		zap.Int64("failed", failedTotal))

	return nil
}

// Recipients resolves a segment to the list of addresses that may be
// mailed. Anyone with an unsubscribed row is filtered out regardless
// of segment
func (s *CampaignSender) Recipients(segment string) ([]string, error) {
	var emails []string
	var err error

	switch segment {
	case model.SegmentMembers:
		err = s.DB.Model(model.User{}).
			Where("verified = ?", true).
			Pluck("email", &emails).
			Error
	case model.SegmentAdmins:
		err = s.DB.Model(model.User{}).
			Where("role = ?", model.RoleAdmin).
			Pluck("email", &emails).
			Error
	case model.SegmentLapsed:
		// Verified accounts with no download in the last 30 days
		err = s.DB.Model(model.User{}).
			Where("verified = ?", true).
			Where("id NOT IN (?)", s.DB.Model(model.Download{}).
				Select("user_id").
				Where("created_at > ?", time.Now().AddDate(0, 0, -30))).
			Pluck("email", &emails).
			Error
	default: // "all"
		err = s.DB.Model(model.EmailSubscriber{}).
			Where("is_subscribed = ?", true).
			Pluck("email", &emails).
			Error

		return emails, err
	}
	if err != nil {
		return nil, err
	}

	// User based segments still honor unsubscribes
	var optedOut []string
	err = s.DB.Model(model.EmailSubscriber{}).
		Where("is_subscribed = ? AND email IN ?", false, emails).
		Pluck("email", &optedOut).
		Error
	if err != nil {
		return nil, err
	}

	if len(optedOut) == 0 {
		return emails, nil
	}

	skip := make(map[string]struct{}, len(optedOut))
	for _, e := range optedOut {
		skip[e] = struct{}{}
	}

	filtered := emails[:0]
	for _, e := range emails {
		if _, out := skip[e]; !out {
			filtered = append(filtered, e)
		}
	}

	return filtered, nil
}

func (s *CampaignSender) withFooter(body, email string) string {
	token, err := security.Sign([]byte(viper.GetString("security.stream_secret")), security.SignedToken{
		Scope:     security.ScopeUnsubscribe,
		Subject:   email,
		ExpiresAt: time.Now().AddDate(1, 0, 0).Unix(),
	})
	if err != nil {
		return body
	}

	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	link := fmt.Sprintf("%s://%s/api/email/unsubscribe?token=%s",
		scheme, viper.GetString("host.domain"), token)

	return body + fmt.Sprintf(
		`<p style="font-size:12px;color:#888">You receive this because you subscribed to TheVideoPool. <a href="%s">Unsubscribe</a></p>`,
		link)
}
