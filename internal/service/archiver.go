package service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"thevideopool/pool-api/internal/model"
	"thevideopool/pool-api/internal/storage"
	"thevideopool/pool-api/internal/ws"
	"thevideopool/pool-api/pkg/metrics"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Archiver assembles bulk download zips on local disk. One zip per
// request, videos streamed straight from the object store into the
// archive so nothing is buffered whole in memory
type Archiver struct {
	DB    *gorm.DB
	Store storage.ObjectStore
	Hub   *ws.Hub
	Dir   string

	// MaxAge decides when the cleanup sweep may remove a finished zip
	MaxAge time.Duration
}

// Build assembles the archive for an existing pending BulkArchive row.
// Per-video failures skip the video and keep going, only a failure to
// produce any archive at all flips the row to failed
func (a *Archiver) Build(ctx context.Context, archiveID string, videoIDs []uint) error {
	var archive model.BulkArchive

	err := a.DB.Where("id = ?", archiveID).First(&archive).Error
	if err != nil {
		return fmt.Errorf("failed to load archive %s, %w", archiveID, err)
	}

	if archive.Status != model.ArchivePending {
		zap.L().Info("Archive not pending, skipping build", zap.String("archive_id", archiveID))
		return nil
	}

	path := filepath.Join(a.Dir, archiveID+".zip")

	out, err := os.Create(path)
	if err != nil {
		a.fail(&archive, fmt.Errorf("failed to create archive file, %w", err))
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	var added []model.Video
	var skipped int

	for _, videoID := range videoIDs {
		var video model.Video

		err := a.DB.Where("id = ? AND published = ?", videoID, true).First(&video).Error
		if err != nil {
			skipped++
			zap.L().Warn("Skipping missing or unpublished video in bulk archive",
				zap.String("archive_id", archiveID), zap.Uint("video_id", videoID))
			continue
		}

		// Quota is charged per archived video, before the bytes move.
		// The guard keeps the balance from ever going below zero
		res := a.DB.Model(model.User{}).
			Where("id = ? AND downloads_remaining > 0", archive.UserID).
			UpdateColumn("downloads_remaining", gorm.Expr("downloads_remaining - ?", 1))
		if res.Error != nil || res.RowsAffected == 0 {
			skipped++
			zap.L().Warn("Quota exhausted mid archive, skipping remaining quota charge",
				zap.String("archive_id", archiveID), zap.Uint("video_id", videoID))
			continue
		}

		if err := a.addVideo(ctx, zw, &video); err != nil {
			// Refund the charge, the user never got the bytes
			a.DB.Model(model.User{}).
				Where("id = ?", archive.UserID).
				UpdateColumn("downloads_remaining", gorm.Expr("downloads_remaining + ?", 1))

			skipped++
			zap.L().Warn("Failed to add video to archive",
				zap.String("archive_id", archiveID), zap.Uint("video_id", videoID), zap.Error(err))
			continue
		}

		added = append(added, video)
	}

	if err := a.writeReadme(zw, added); err != nil {
		zap.L().Warn("Failed to write archive README", zap.Error(err))
	}

	if err := zw.Close(); err != nil {
		a.fail(&archive, fmt.Errorf("failed to finalize zip, %w", err))
		return err
	}

	if len(added) == 0 {
		os.Remove(path)
		a.fail(&archive, fmt.Errorf("no videos could be archived"))
		return nil
	}

	stat, err := os.Stat(path)
	if err != nil {
		a.fail(&archive, err)
		return err
	}

	now := time.Now()

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		for _, v := range added {
			if err := tx.Create(&model.Download{
				UserID:    archive.UserID,
				VideoID:   v.ID,
				ArchiveID: &archive.ID,
				CreatedAt: now,
			}).Error; err != nil {
				return err
			}

			if err := tx.Model(model.Video{}).
				Where("id = ?", v.ID).
				UpdateColumn("downloads", gorm.Expr("downloads + ?", 1)).
				Error; err != nil {
				return err
			}
		}

		return tx.Model(model.BulkArchive{}).
			Where("id = ?", archive.ID).
			Updates(map[string]any{
				"status":        model.ArchiveReady,
				"video_count":   len(added),
				"skipped_count": skipped,
				"size_bytes":    stat.Size(),
				"path":          path,
				"expires_at":    now.Add(a.MaxAge),
			}).
			Error
	})
	if err != nil {
		a.fail(&archive, fmt.Errorf("failed to record archive result, %w", err))
		return err
	}

	metrics.DownloadsTotal.WithLabelValues("bulk").Add(float64(len(added)))
	metrics.ArchivesBuilt.WithLabelValues(model.ArchiveReady).Inc()

	Notify(a.DB, a.Hub, archive.UserID, model.NotifArchiveReady,
		"Your bulk download is ready",
		fmt.Sprintf("%d videos packed, %d skipped. The archive expires in %s.", len(added), skipped, a.MaxAge))

	zap.L().Info("Bulk archive ready",
		zap.String("archive_id", archiveID),
		zap.Int("videos", len(added)),
		zap.Int("skipped", skipped),
		zap.Int64("size", stat.Size()))

	return nil
}

func (a *Archiver) addVideo(ctx context.Context, zw *zip.Writer, v *model.Video) error {
	body, err := a.Store.Get(ctx, v.FileKey)
	if err != nil {
		return err
	}
	defer body.Close()

	entry, err := zw.Create(entryName(v))
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, body)
	return err
}

func (a *Archiver) writeReadme(zw *zip.Writer, videos []model.Video) error {
	var sb strings.Builder

	sb.WriteString("TheVideoPool bulk download\n")
	sb.WriteString("Generated: " + time.Now().Format(time.RFC1123) + "\n\n")
	sb.WriteString("Contents:\n")

	for _, v := range videos {
		sb.WriteString(fmt.Sprintf("  - %s (%d BPM, %s)\n", v.Title, v.BPM, v.Resolution))

		var right model.ContentRight
		if err := a.DB.Where("video_id = ?", v.ID).First(&right).Error; err == nil {
			sb.WriteString(fmt.Sprintf("    License: %s, %s\n", right.LicenseType, right.RightsHolder))
		}
	}

	sb.WriteString("\nFor licensed use by active TheVideoPool members only.\n")

	entry, err := zw.Create("README.txt")
	if err != nil {
		return err
	}

	_, err = entry.Write([]byte(sb.String()))
	return err
}

func (a *Archiver) fail(archive *model.BulkArchive, cause error) {
	metrics.ArchivesBuilt.WithLabelValues(model.ArchiveFailed).Inc()

	err := a.DB.Model(model.BulkArchive{}).
		Where("id = ?", archive.ID).
		Updates(map[string]any{
			"status": model.ArchiveFailed,
			"error":  cause.Error(),
		}).
		Error
	if err != nil {
		zap.L().Error("Failed to mark archive as failed", zap.Error(err))
	}

	Notify(a.DB, a.Hub, archive.UserID, model.NotifArchiveFailed,
		"Your bulk download failed",
		"We couldn't assemble your archive. No downloads were charged for skipped videos.")

	zap.L().Error("Bulk archive failed", zap.String("archive_id", archive.ID), zap.Error(cause))
}

// Filenames inside the zip stay close to the title but can't collide
// or carry path separators
func entryName(v *model.Video) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, v.Title)

	ext := ".mp4"
	if idx := strings.LastIndex(v.FileKey, "."); idx != -1 {
		ext = v.FileKey[idx:]
	}

	return fmt.Sprintf("%03d_%s%s", v.ID, name, ext)
}
