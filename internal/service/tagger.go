package service

import (
	"strings"
	"thevideopool/pool-api/internal/model"
	"time"
	"unicode"

	"gorm.io/gorm"
)

// Words that carry no tag value when they show up in a title
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "loop": {}, "video": {},
	"mix": {}, "edit": {}, "remix": {}, "feat": {}, "vol": {}, "version": {},
}

// AnalyzeVideo runs the heuristic tagger and moderation checks over a
// video and stores the result, replacing any previous one
func AnalyzeVideo(db *gorm.DB, v *model.Video) (*model.ContentAnalysisResult, error) {
	tags := suggestTags(v)
	flags := []string{}

	var rightsCount int64
	if err := db.Model(model.ContentRight{}).Where("video_id = ?", v.ID).Count(&rightsCount).Error; err != nil {
		return nil, err
	}
	if rightsCount == 0 {
		flags = append(flags, "no-rights")
	}

	var dupeCount int64
	if err := db.Model(model.Video{}).
		Where("LOWER(title) = ? AND id <> ?", strings.ToLower(v.Title), v.ID).
		Count(&dupeCount).Error; err != nil {
		return nil, err
	}
	if dupeCount > 0 {
		flags = append(flags, "duplicate-title")
	}

	if v.DurationSec > 0 && v.DurationSec < 5 {
		flags = append(flags, "too-short")
	}

	// Score is a crude confidence value, one point lost per flag
	score := 1.0 - float64(len(flags))*0.25
	if score < 0 {
		score = 0
	}

	result := model.ContentAnalysisResult{
		VideoID:       v.ID,
		SuggestedTags: tags,
		Flags:         flags,
		Score:         score,
		AnalyzedAt:    time.Now(),
	}

	err := db.Where("video_id = ?", v.ID).
		Assign(map[string]any{
			"suggested_tags": result.SuggestedTags,
			"flags":          result.Flags,
			"score":          result.Score,
			"analyzed_at":    result.AnalyzedAt,
		}).
		FirstOrCreate(&result).
		Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func suggestTags(v *model.Video) model.StringSlice {
	seen := map[string]struct{}{}
	tags := model.StringSlice{}

	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) < 3 {
			return
		}
		if _, dupe := seen[t]; dupe {
			return
		}
		if _, stop := stopwords[t]; stop {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}

	for _, word := range splitWords(v.Title) {
		add(word)
	}

	switch {
	case v.BPM == 0:
	case v.BPM < 90:
		add("downtempo")
	case v.BPM < 115:
		add("midtempo")
	case v.BPM < 135:
		add("uptempo")
	default:
		add("fast")
	}

	switch v.Resolution {
	case "3840x2160", "4096x2160":
		add("4k")
	case "1920x1080":
		add("1080p")
	case "1280x720":
		add("720p")
	}

	return tags
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
