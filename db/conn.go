// Package db contains the database connection and migration setup
package db

import (
	"fmt"
	"os"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/pkg/util"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New() (*gorm.DB, error) {
	var dial gorm.Dialector

	dsn := viper.GetString("database.dsn")

	switch viper.GetString("database.driver") {
	case "postgres":
		dial = postgres.Open(dsn)
	default:
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(dsn); err != nil {
				if os.IsNotExist(err) {
					return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
				}
			}
		}

		dial = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dial)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(
		model.User{},
		model.Membership{},
		model.Video{},
		model.Category{},
		model.Download{},
		model.Favorite{},
		model.Playlist{},
		model.PlaylistItem{},
		model.BulkArchive{},
		model.EmailCampaign{},
		model.EmailSubscriber{},
		model.EmailSend{},
		model.ContentRight{},
		model.CopyrightClaim{},
		model.ContentAnalysisResult{},
		model.APIKey{},
		model.APIUsage{},
		model.Notification{},
		model.VerificationToken{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

// SeedCatalog creates the default membership tiers and categories if
// they don't exist yet. Safe to run more than once
func SeedCatalog(db *gorm.DB) error {
	tiers := []model.Membership{
		{Name: "Basic", Description: "Entry tier for casual DJs", PriceCents: 1999, MonthlyDownloads: 25, BulkLimit: 5, StreamHours: 10},
		{Name: "Standard", Description: "Working DJ tier", PriceCents: 3999, MonthlyDownloads: 100, BulkLimit: 20, StreamHours: 50},
		{Name: "Premium", Description: "Full pool access for VJs and clubs", PriceCents: 7999, MonthlyDownloads: 400, BulkLimit: 50, StreamHours: 200},
	}

	for _, t := range tiers {
		if err := db.Where("name = ?", t.Name).FirstOrCreate(&model.Membership{}, t).Error; err != nil {
			return fmt.Errorf("failed to seed membership %q, %w", t.Name, err)
		}
	}

	categories := []model.Category{
		{Name: "Hip Hop", Slug: "hip-hop"},
		{Name: "House", Slug: "house"},
		{Name: "Latin", Slug: "latin"},
		{Name: "Pop", Slug: "pop"},
		{Name: "Ambient Loops", Slug: "ambient-loops"},
		{Name: "VJ Visuals", Slug: "vj-visuals"},
	}

	for _, cat := range categories {
		if err := db.Where("slug = ?", cat.Slug).FirstOrCreate(&model.Category{}, cat).Error; err != nil {
			return fmt.Errorf("failed to seed category %q, %w", cat.Slug, err)
		}
	}

	return nil
}
