package service

import (
	"context"
	"errors"
	"testing"
	"thevideopool/pool-api/internal/model"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	sent   []string
	failTo map[string]bool
}

func (m *fakeMailer) Send(to, subject, htmlBody string) error {
	if m.failTo[to] {
		return errors.New("mailbox full")
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestSender(db *gorm.DB, m Mailer) *CampaignSender {
	s := NewCampaignSender(db, m)
	s.Sleep = func(time.Duration) {}
	return s
}

func seedSubscribers(t *testing.T, db *gorm.DB, emails ...string) {
	t.Helper()
	for _, e := range emails {
		require.NoError(t, db.Create(&model.EmailSubscriber{
			Email:        e,
			IsSubscribed: true,
			SubscribedAt: time.Now(),
		}).Error)
	}
}

func TestDeliverDraftCampaign(t *testing.T) {
	viper.Set("campaigns.default_rate_per_hour", 500)
	viper.Set("security.stream_secret", "sender-test-secret")

	db := testDB(t)
	seedSubscribers(t, db, "a@example.com", "b@example.com", "c@example.com")

	campaign := model.EmailCampaign{
		Name:        "August drop",
		Subject:     "New visuals",
		Body:        "<p>Fresh loops</p>",
		Segment:     model.SegmentAll,
		Status:      model.CampaignDraft,
		RatePerHour: 3600,
	}
	require.NoError(t, db.Create(&campaign).Error)

	mailer := &fakeMailer{}
	sender := newTestSender(db, mailer)

	require.NoError(t, sender.Deliver(context.Background(), campaign.ID))

	assert.Len(t, mailer.sent, 3)

	var got model.EmailCampaign
	require.NoError(t, db.First(&got, campaign.ID).Error)
	assert.Equal(t, model.CampaignSent, got.Status)
	assert.Equal(t, 3, got.SentCount)
	assert.Equal(t, 0, got.FailedCount)

	var sends int64
	require.NoError(t, db.Model(model.EmailSend{}).
		Where("campaign_id = ? AND status = ?", campaign.ID, model.SendSent).
		Count(&sends).Error)
	assert.EqualValues(t, 3, sends)
}

func TestDeliverRecordsFailures(t *testing.T) {
	viper.Set("security.stream_secret", "sender-test-secret")

	db := testDB(t)
	seedSubscribers(t, db, "ok@example.com", "bad@example.com")

	campaign := model.EmailCampaign{
		Name:        "Release",
		Subject:     "Hi",
		Body:        "<p>Hi</p>",
		Segment:     model.SegmentAll,
		Status:      model.CampaignDraft,
		RatePerHour: 3600,
	}
	require.NoError(t, db.Create(&campaign).Error)

	mailer := &fakeMailer{failTo: map[string]bool{"bad@example.com": true}}
	sender := newTestSender(db, mailer)

	require.NoError(t, sender.Deliver(context.Background(), campaign.ID))

	var got model.EmailCampaign
	require.NoError(t, db.First(&got, campaign.ID).Error)
	assert.Equal(t, 1, got.SentCount)
	assert.Equal(t, 1, got.FailedCount)

	var failedSend model.EmailSend
	require.NoError(t, db.Where("campaign_id = ? AND status = ?", campaign.ID, model.SendFailed).
		First(&failedSend).Error)
	assert.Equal(t, "bad@example.com", failedSend.Email)
	assert.Equal(t, "mailbox full", failedSend.Error)
}

func TestDeliverResumesInterruptedCampaign(t *testing.T) {
	viper.Set("security.stream_secret", "sender-test-secret")

	db := testDB(t)
	seedSubscribers(t, db, "a@example.com", "b@example.com", "c@example.com")

	// A worker restart leaves the campaign in "sending" with the
	// addresses already attempted recorded as EmailSend rows
	campaign := model.EmailCampaign{
		Name:        "Interrupted",
		Subject:     "Hi",
		Body:        "<p>Hi</p>",
		Segment:     model.SegmentAll,
		Status:      model.CampaignSending,
		RatePerHour: 3600,
	}
	require.NoError(t, db.Create(&campaign).Error)
	require.NoError(t, db.Create(&model.EmailSend{
		CampaignID: campaign.ID,
		Email:      "a@example.com",
		Status:     model.SendSent,
		SentAt:     time.Now(),
	}).Error)

	mailer := &fakeMailer{}
	sender := newTestSender(db, mailer)

	require.NoError(t, sender.Deliver(context.Background(), campaign.ID))

	// Only the remaining two get mail, nobody twice
	assert.ElementsMatch(t, []string{"b@example.com", "c@example.com"}, mailer.sent)

	var got model.EmailCampaign
	require.NoError(t, db.First(&got, campaign.ID).Error)
	assert.Equal(t, model.CampaignSent, got.Status)
	assert.Equal(t, 3, got.SentCount)
	assert.Equal(t, 0, got.FailedCount)
}

func TestDeliverSkipsCancelledCampaign(t *testing.T) {
	db := testDB(t)
	seedSubscribers(t, db, "a@example.com")

	campaign := model.EmailCampaign{
		Name:        "Pulled",
		Subject:     "Never mind",
		Body:        "<p>x</p>",
		Segment:     model.SegmentAll,
		Status:      model.CampaignCancelled,
		RatePerHour: 3600,
	}
	require.NoError(t, db.Create(&campaign).Error)

	mailer := &fakeMailer{}
	sender := newTestSender(db, mailer)

	require.NoError(t, sender.Deliver(context.Background(), campaign.ID))

	assert.Empty(t, mailer.sent)

	var got model.EmailCampaign
	require.NoError(t, db.First(&got, campaign.ID).Error)
	assert.Equal(t, model.CampaignCancelled, got.Status)
}

func TestRecipientsHonorUnsubscribes(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&model.Membership{Name: "Basic"}).Error)

	users := []model.User{
		{ID: "u1", Email: "one@example.com", PasswordHash: "x", Verified: true, MembershipID: 1},
		{ID: "u2", Email: "two@example.com", PasswordHash: "x", Verified: true, MembershipID: 1},
		{ID: "u3", Email: "three@example.com", PasswordHash: "x", Verified: false, MembershipID: 1},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}

	now := time.Now()
	require.NoError(t, db.Create(&model.EmailSubscriber{
		Email:          "two@example.com",
		IsSubscribed:   false,
		SubscribedAt:   now.AddDate(0, -2, 0),
		UnsubscribedAt: &now,
	}).Error)

	sender := newTestSender(db, &fakeMailer{})

	emails, err := sender.Recipients(model.SegmentMembers)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"one@example.com"}, emails)
}

func TestRecipientsLapsedSegment(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&model.Membership{Name: "Basic"}).Error)

	active := model.User{ID: "u1", Email: "active@example.com", PasswordHash: "x", Verified: true, MembershipID: 1}
	lapsed := model.User{ID: "u2", Email: "lapsed@example.com", PasswordHash: "x", Verified: true, MembershipID: 1}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&lapsed).Error)

	video := model.Video{Title: "Glow", Published: true}
	require.NoError(t, db.Create(&video).Error)

	require.NoError(t, db.Create(&model.Download{UserID: active.ID, VideoID: video.ID}).Error)

	sender := newTestSender(db, &fakeMailer{})

	emails, err := sender.Recipients(model.SegmentLapsed)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"lapsed@example.com"}, emails)
}
