package video

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (*gin.Engine, *internal.Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Video{}, &model.Category{}))

	d := &internal.Deps{DB: db}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("requestID", "test")
	})

	router.GET("/videos", func(c *gin.Context) { VideoFetchBulk(c, d) })
	router.GET("/videos/search", func(c *gin.Context) { VideoSearch(c, d) })

	return router, d
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestFetchBulkOnlyPublished(t *testing.T) {
	router, d := setup(t)

	require.NoError(t, d.DB.Create(&model.Video{
		Title: "Live", Published: true, CreatedAt: time.Now().Unix(),
	}).Error)
	require.NoError(t, d.DB.Create(&model.Video{
		Title: "Draft", Published: false, CreatedAt: time.Now().Unix(),
	}).Error)

	w := get(router, "/videos")
	require.Equal(t, http.StatusOK, w.Code)

	var videos []model.Video
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	require.Len(t, videos, 1)
	assert.Equal(t, "Live", videos[0].Title)
}

func TestFetchBulkValidation(t *testing.T) {
	router, _ := setup(t)

	testCases := []struct {
		name string
		path string
	}{
		{"negative page", "/videos?page=-1"},
		{"zero limit", "/videos?limit=0"},
		{"limit too big", "/videos?limit=500"},
		{"bad sort", "/videos?sort=random"},
		{"bad category", "/videos?category=abc"},
		{"bad bpm", "/videos?bpm_min=fast"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(router, tc.path)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestFetchBulkBPMFilter(t *testing.T) {
	router, d := setup(t)

	for _, v := range []model.Video{
		{Title: "Slow", BPM: 80, Published: true, CreatedAt: time.Now().Unix()},
		{Title: "Fast", BPM: 140, Published: true, CreatedAt: time.Now().Unix()},
	} {
		require.NoError(t, d.DB.Create(&v).Error)
	}

	w := get(router, "/videos?bpm_min=100")
	require.Equal(t, http.StatusOK, w.Code)

	var videos []model.Video
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	require.Len(t, videos, 1)
	assert.Equal(t, "Fast", videos[0].Title)
}

func TestFetchBulkSortAlphabetic(t *testing.T) {
	router, d := setup(t)

	for _, title := range []string{"Zebra", "Aurora", "Midnight"} {
		require.NoError(t, d.DB.Create(&model.Video{
			Title: title, Published: true, CreatedAt: time.Now().Unix(),
		}).Error)
	}

	w := get(router, "/videos?sort=az")
	require.Equal(t, http.StatusOK, w.Code)

	var videos []model.Video
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	require.Len(t, videos, 3)
	assert.Equal(t, "Aurora", videos[0].Title)
	assert.Equal(t, "Zebra", videos[2].Title)
}

func TestSearchMatchesTags(t *testing.T) {
	router, d := setup(t)

	require.NoError(t, d.DB.Create(&model.Video{
		Title:     "Tunnel Run",
		Tags:      model.StringSlice{"neon", "tunnel"},
		Published: true,
		CreatedAt: time.Now().Unix(),
	}).Error)
	require.NoError(t, d.DB.Create(&model.Video{
		Title:     "Beach Sunset",
		Published: true,
		CreatedAt: time.Now().Unix(),
	}).Error)

	w := get(router, "/videos/search?query=neon")
	require.Equal(t, http.StatusOK, w.Code)

	var videos []model.Video
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &videos))
	require.Len(t, videos, 1)
	assert.Equal(t, "Tunnel Run", videos[0].Title)
}
