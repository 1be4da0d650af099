package download

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeStore struct{}

func (fakeStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("data")), nil
}

func (fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return nil
}

func (fakeStore) Delete(ctx context.Context, keys ...string) error { return nil }

func (fakeStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://cdn.test/" + key, nil
}

type fakeQueue struct {
	enqueued []*asynq.Task
}

func (q *fakeQueue) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.enqueued = append(q.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

func setup(t *testing.T) (*gin.Engine, *internal.Deps, *fakeQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
		&model.BulkArchive{},
	))

	queue := &fakeQueue{}
	d := &internal.Deps{
		DB:    db,
		Store: fakeStore{},
		Tasks: queue,
	}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("requestID", "test")
		c.Set("userID", "u1")
	})

	router.POST("/downloads/:id", func(c *gin.Context) { DownloadSingle(c, d) })
	router.GET("/downloads", func(c *gin.Context) { DownloadHistory(c, d) })
	router.POST("/downloads/bulk", func(c *gin.Context) { DownloadBulk(c, d) })
	router.GET("/downloads/bulk/:id", func(c *gin.Context) { DownloadBulkStatus(c, d) })
	router.GET("/downloads/bulk/:id/file", func(c *gin.Context) { DownloadBulkFile(c, d) })

	return router, d, queue
}

func seedUser(t *testing.T, db *gorm.DB, remaining, bulkLimit int) {
	t.Helper()

	require.NoError(t, db.Create(&model.Membership{
		Name:             "Standard",
		MonthlyDownloads: 100,
		BulkLimit:        bulkLimit,
	}).Error)

	require.NoError(t, db.Create(&model.User{
		ID:                 "u1",
		Email:              "dj@example.com",
		PasswordHash:       "x",
		Verified:           true,
		MembershipID:       1,
		DownloadsRemaining: remaining,
		BillingRenewsAt:    time.Now().AddDate(0, 1, 0),
	}).Error)
}

func seedVideo(t *testing.T, db *gorm.DB, title string, published bool) model.Video {
	t.Helper()

	v := model.Video{
		Title:     title,
		FileKey:   "vid/" + title,
		Published: published,
		CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func TestDownloadSingleChargesQuota(t *testing.T) {
	router, d, _ := setup(t)
	seedUser(t, d.DB, 5, 20)
	v := seedVideo(t, d.DB, "a", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/downloads/%d", v.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://cdn.test/vid/a", w.Header().Get("Location"))

	var user model.User
	require.NoError(t, d.DB.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, 4, user.DownloadsRemaining)

	var rows int64
	require.NoError(t, d.DB.Model(model.Download{}).
		Where("user_id = ? AND video_id = ?", "u1", v.ID).
		Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	var got model.Video
	require.NoError(t, d.DB.First(&got, v.ID).Error)
	assert.EqualValues(t, 1, got.Downloads)
}

func TestDownloadSingleQuotaExhausted(t *testing.T) {
	router, d, _ := setup(t)
	seedUser(t, d.DB, 0, 20)
	v := seedVideo(t, d.DB, "a", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/downloads/%d", v.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var rows int64
	require.NoError(t, d.DB.Model(model.Download{}).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)
}

func TestDownloadSingleNeverGoesNegative(t *testing.T) {
	router, d, _ := setup(t)
	seedUser(t, d.DB, 1, 20)
	v := seedVideo(t, d.DB, "a", true)

	for i, want := range []int{http.StatusTemporaryRedirect, http.StatusForbidden} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/downloads/%d", v.ID), nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "request %d", i)
	}

	var user model.User
	require.NoError(t, d.DB.First(&user, "id = ?", "u1").Error)
	assert.Equal(t, 0, user.DownloadsRemaining)
}

func TestDownloadSingleUnpublished(t *testing.T) {
	router, d, _ := setup(t)
	seedUser(t, d.DB, 5, 20)
	v := seedVideo(t, d.DB, "a", false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/downloads/%d", v.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadBulkOverLimit(t *testing.T) {
	router, d, queue := setup(t)
	seedUser(t, d.DB, 50, 2)
	for _, title := range []string{"a", "b", "c"} {
		seedVideo(t, d.DB, title, true)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/downloads/bulk",
		strings.NewReader(`{"video_ids":[1,2,3]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, queue.enqueued)
}

func TestDownloadBulkQueuesBuild(t *testing.T) {
	router, d, queue := setup(t)
	seedUser(t, d.DB, 50, 20)
	seedVideo(t, d.DB, "a", true)
	seedVideo(t, d.DB, "b", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/downloads/bulk",
		strings.NewReader(`{"video_ids":[1,2]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, queue.enqueued, 1)

	var resp model.BulkArchive
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ArchivePending, resp.Status)

	var archive model.BulkArchive
	require.NoError(t, d.DB.First(&archive, "id = ?", resp.ID).Error)
	assert.Equal(t, "u1", archive.UserID)
}

func TestDownloadBulkStatusReadyIncludesURL(t *testing.T) {
	viper.Set("security.stream_secret", "download-test-secret")

	router, d, _ := setup(t)
	seedUser(t, d.DB, 50, 20)

	archive := model.BulkArchive{
		ID:        "abc-123",
		UserID:    "u1",
		Status:    model.ArchiveReady,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, d.DB.Create(&archive).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/downloads/bulk/abc-123", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	url, ok := resp["url"].(string)
	require.True(t, ok)
	assert.Contains(t, url, "/downloads/bulk/abc-123/file?token=")
}

func TestDownloadBulkStatusOtherUsers(t *testing.T) {
	router, d, _ := setup(t)
	seedUser(t, d.DB, 50, 20)

	require.NoError(t, d.DB.Create(&model.BulkArchive{
		ID:     "theirs",
		UserID: "u2",
		Status: model.ArchiveReady,
	}).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/downloads/bulk/theirs", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadBulkFileRejectsBadToken(t *testing.T) {
	viper.Set("security.stream_secret", "download-test-secret")

	router, _, _ := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/downloads/bulk/abc/file?token=garbage", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
