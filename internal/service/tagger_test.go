package service

import (
	"testing"
	"thevideopool/pool-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestTags(t *testing.T) {
	testCases := []struct {
		name     string
		video    model.Video
		expected []string
	}{
		{
			name:     "title words minus stopwords",
			video:    model.Video{Title: "Neon City Loop"},
			expected: []string{"neon", "city"},
		},
		{
			name:     "short words dropped",
			video:    model.Video{Title: "DJ at the Club"},
			expected: []string{"club"},
		},
		{
			name:     "bpm buckets",
			video:    model.Video{Title: "Pulse", BPM: 128},
			expected: []string{"pulse", "uptempo"},
		},
		{
			name:     "resolution tag",
			video:    model.Video{Title: "Skyline", Resolution: "3840x2160"},
			expected: []string{"skyline", "4k"},
		},
		{
			name:     "no duplicates",
			video:    model.Video{Title: "Neon Neon NEON"},
			expected: []string{"neon"},
		},
		{
			name:     "zero bpm adds nothing",
			video:    model.Video{Title: "Static"},
			expected: []string{"static"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := suggestTags(&tc.video)
			assert.Equal(t, model.StringSlice(tc.expected), got)
		})
	}
}

func TestAnalyzeVideoFlags(t *testing.T) {
	db := testDB(t)

	v := model.Video{Title: "Strobe Tunnel", DurationSec: 3, Published: true}
	require.NoError(t, db.Create(&v).Error)

	result, err := AnalyzeVideo(db, &v)
	require.NoError(t, err)

	// No rights record and a 3 second clip
	assert.Contains(t, result.Flags, "no-rights")
	assert.Contains(t, result.Flags, "too-short")
	assert.NotContains(t, result.Flags, "duplicate-title")
	assert.InDelta(t, 0.5, result.Score, 0.001)
}

func TestAnalyzeVideoDuplicateTitle(t *testing.T) {
	db := testDB(t)

	first := model.Video{Title: "Laser Grid"}
	second := model.Video{Title: "laser grid"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	result, err := AnalyzeVideo(db, &second)
	require.NoError(t, err)

	assert.Contains(t, result.Flags, "duplicate-title")
}

func TestAnalyzeVideoReplacesPreviousResult(t *testing.T) {
	db := testDB(t)

	v := model.Video{Title: "Orbit"}
	require.NoError(t, db.Create(&v).Error)

	_, err := AnalyzeVideo(db, &v)
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.ContentRight{
		VideoID:      v.ID,
		LicenseType:  "royalty-free",
		RightsHolder: "Orbit Media",
	}).Error)

	result, err := AnalyzeVideo(db, &v)
	require.NoError(t, err)
	assert.NotContains(t, result.Flags, "no-rights")

	var count int64
	require.NoError(t, db.Model(model.ContentAnalysisResult{}).
		Where("video_id = ?", v.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
