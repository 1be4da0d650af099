package validators

import (
	"errors"
	"slices"
)

var (
	ErrVideoTitleEmpty   = errors.New("video title can't be empty")
	ErrVideoKeyEmpty     = errors.New("video file key can't be empty")
	ErrVideoBadBPM       = errors.New("bpm must be between 0 and 300")
	ErrVideoBadFormat    = errors.New("unsupported video format")
	ErrVideoNoCategory   = errors.New("no category provided")
)

var validFormats = []string{"video/mp4", "video/quicktime", "video/webm"}

type VideoInput struct {
	Title      string
	FileKey    string
	CategoryID uint
	BPM        int
	Format     string
}

func VideoValidator(in VideoInput) error {
	if in.Title == "" {
		return ErrVideoTitleEmpty
	}

	if in.FileKey == "" {
		return ErrVideoKeyEmpty
	}

	if in.CategoryID == 0 {
		return ErrVideoNoCategory
	}

	if in.BPM < 0 || in.BPM > 300 {
		return ErrVideoBadBPM
	}

	if in.Format != "" && !slices.Contains(validFormats, in.Format) {
		return ErrVideoBadFormat
	}

	return nil
}
