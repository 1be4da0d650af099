package service

import (
	"os"
	"path/filepath"
	"testing"
	"thevideopool/pool-api/internal/model"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountCleanupRemovesExpiredUnverified(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&model.Membership{Name: "Basic"}).Error)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	stale := model.User{ID: "u1", Email: "stale@example.com", PasswordHash: "x", MembershipID: 1, ExpiresAt: &past}
	fresh := model.User{ID: "u2", Email: "fresh@example.com", PasswordHash: "x", MembershipID: 1, ExpiresAt: &future}
	verified := model.User{ID: "u3", Email: "done@example.com", PasswordHash: "x", MembershipID: 1, Verified: true}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)
	require.NoError(t, db.Create(&verified).Error)

	require.NoError(t, db.Create(&model.VerificationToken{
		UserID:    stale.ID,
		Token:     "tok-stale",
		Purpose:   "verify",
		ExpiresAt: past,
	}).Error)

	AccountCleanup(db)

	var emails []string
	require.NoError(t, db.Model(model.User{}).Order("id").Pluck("email", &emails).Error)
	assert.Equal(t, []string{"fresh@example.com", "done@example.com"}, emails)

	var tokens int64
	require.NoError(t, db.Model(model.VerificationToken{}).
		Where("user_id = ?", stale.ID).
		Count(&tokens).Error)
	assert.Zero(t, tokens)
}

func TestArchiveSweepReapsExpiredAndFailed(t *testing.T) {
	viper.Set("downloads.archive_max_age_hours", 24)

	db := testDB(t)
	dir := t.TempDir()

	expiredPath := filepath.Join(dir, "expired.zip")
	require.NoError(t, os.WriteFile(expiredPath, []byte("zip"), 0o600))

	expired := model.BulkArchive{
		ID:        "old-ready",
		UserID:    "u1",
		Status:    model.ArchiveReady,
		Path:      expiredPath,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	failed := model.BulkArchive{
		ID:        "old-failed",
		UserID:    "u1",
		Status:    model.ArchiveFailed,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	liveReady := model.BulkArchive{
		ID:        "live-ready",
		UserID:    "u1",
		Status:    model.ArchiveReady,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	recentFailed := model.BulkArchive{
		ID:     "new-failed",
		UserID: "u1",
		Status: model.ArchiveFailed,
	}
	for _, a := range []model.BulkArchive{expired, failed, liveReady, recentFailed} {
		require.NoError(t, db.Create(&a).Error)
	}

	ArchiveSweep(db)

	var ids []string
	require.NoError(t, db.Model(model.BulkArchive{}).Order("id").Pluck("id", &ids).Error)
	assert.Equal(t, []string{"live-ready", "new-failed"}, ids)

	_, err := os.Stat(expiredPath)
	assert.True(t, os.IsNotExist(err))
}
