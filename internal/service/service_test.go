package service

import (
	"testing"
	"thevideopool/pool-api/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Membership{},
		&model.Video{},
		&model.Category{},
		&model.Download{},
		&model.Favorite{},
		&model.Playlist{},
		&model.PlaylistItem{},
		&model.BulkArchive{},
		&model.EmailCampaign{},
		&model.EmailSubscriber{},
		&model.EmailSend{},
		&model.ContentRight{},
		&model.CopyrightClaim{},
		&model.ContentAnalysisResult{},
		&model.Notification{},
		&model.VerificationToken{},
	))

	return db
}
