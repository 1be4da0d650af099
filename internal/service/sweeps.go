package service

import (
	"os"
	"thevideopool/pool-api/internal/model"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartSweeps attaches the periodic cleanup jobs and returns the
// running scheduler so the caller can stop it on shutdown
func StartSweeps(db *gorm.DB) *cron.Cron {
	c := cron.New()

	c.AddFunc("@hourly", func() { ArchiveSweep(db) })
	c.AddFunc("@hourly", func() { AccountCleanup(db) })
	c.AddFunc("@every 15m", func() { QuotaReset(db) })

	c.Start()

	zap.L().Debug("Cleanup sweeps attached")

	return c
}

// ArchiveSweep deletes bulk archives past their expiry, files first so
// a crash between the two steps leaves a harmless dangling row. Failed
// builds never get an expiry stamp, those go by age instead
func ArchiveSweep(db *gorm.DB) {
	var expired []model.BulkArchive

	maxAge := time.Duration(viper.GetInt("downloads.archive_max_age_hours")) * time.Hour

	err := db.
		Where("expires_at < ? AND status = ?", time.Now(), model.ArchiveReady).
		Or("status = ? AND created_at < ?", model.ArchiveFailed, time.Now().Add(-maxAge)).
		Find(&expired).
		Error
	if err != nil {
		zap.L().Error("Failed to query db for expired archives", zap.Error(err))
		return
	}

	if len(expired) == 0 {
		return
	}

	for _, a := range expired {
		if a.Path != "" {
			if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
				zap.L().Error("Failed to remove archive file", zap.String("path", a.Path), zap.Error(err))
				continue
			}
		}

		if err := db.Delete(&model.BulkArchive{}, "id = ?", a.ID).Error; err != nil {
			zap.L().Error("Failed to delete archive row", zap.Error(err))
		}
	}

	zap.L().Debug("Archive sweep finished", zap.Int("removed", len(expired)))
}

// AccountCleanup deletes accounts whose verification window passed
// without the mail link being clicked. Verification clears ExpiresAt,
// so anything past it is an abandoned signup
func AccountCleanup(db *gorm.DB) {
	var ids []string

	err := db.Model(model.User{}).
		Where("expires_at < ?", time.Now()).
		Pluck("id", &ids).
		Error
	if err != nil {
		zap.L().Error("Failed to query db for expired accounts", zap.Error(err))
		return
	}

	if len(ids) == 0 {
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id IN ?", ids).Delete(model.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(model.User{}).Error
	})
	if err != nil {
		zap.L().Error("Failed to delete expired accounts", zap.Error(err))
		return
	}

	zap.L().Debug("Account cleanup finished", zap.Int("removed", len(ids)))
}

// QuotaReset restores the monthly download allowance for every user
// whose billing period rolled over
func QuotaReset(db *gorm.DB) {
	var due []model.User

	err := db.
		Preload("Membership").
		Where("billing_renews_at < ?", time.Now()).
		Find(&due).
		Error
	if err != nil {
		zap.L().Error("Failed to query db for users due a quota reset", zap.Error(err))
		return
	}

	for _, u := range due {
		err := db.Model(model.User{}).
			Where("id = ?", u.ID).
			Updates(map[string]any{
				"downloads_remaining": u.Membership.MonthlyDownloads,
				"billing_renews_at":   u.BillingRenewsAt.AddDate(0, 1, 0),
			}).
			Error
		if err != nil {
			zap.L().Error("Failed to reset quota", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	if len(due) > 0 {
		zap.L().Debug("Quota reset finished", zap.Int("users", len(due)))
	}
}

// TokenCleanup defines a function used to periodically cleanup old
// verification tokens that aren't needed anymore
func TokenCleanup(t time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Token cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			var toCleanIds []string

			err := db.
				Model(model.VerificationToken{}).
				Where("expires_at < ?", time.Now()).
				Select("id").
				Find(&toCleanIds).
				Error
			if err != nil {
				zap.L().Error("Failed to query db for tokens to clean", zap.Error(err))
				return
			}

			if len(toCleanIds) > 0 {
				zap.L().Debug("Cleaning up expired tokens")

				err = db.
					Where("id IN ?", toCleanIds).
					Delete(model.VerificationToken{}).
					Error
				if err != nil {
					zap.L().Error("Failed to cleanup database", zap.Error(err))
				}
			}
		}
	}()
}
