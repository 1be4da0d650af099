package stream

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
	"thevideopool/pool-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "stream-test-secret"

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

func setup(t *testing.T) (*gin.Engine, *internal.Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	viper.Set("security.stream_secret", testSecret)
	viper.Set("security.stream_token_ttl_minutes", 30)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Video{}, &model.Category{}))

	d := &internal.Deps{DB: db, Store: fakeStore{}}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("requestID", "test")
		c.Set("userID", "u1")
	})

	router.POST("/api/stream/:id/token", func(c *gin.Context) { StreamToken(c, d) })
	router.GET("/api/stream/:id", func(c *gin.Context) { StreamServe(c, d) })

	return router, d
}

func seedVideo(t *testing.T, db *gorm.DB) model.Video {
	t.Helper()

	v := model.Video{
		Title:     "Tunnel",
		FileKey:   "vid/tunnel",
		Published: true,
		CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func TestStreamTokenRoundTrip(t *testing.T) {
	router, d := setup(t)
	v := seedVideo(t, d.DB)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/stream/%d/token", v.ID), nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Contains(t, resp.URL, "/api/stream/")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, resp.URL, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://cdn.test/vid/tunnel", w.Header().Get("Location"))
}

func TestStreamServeRejectsTokenForOtherVideo(t *testing.T) {
	router, d := setup(t)
	v := seedVideo(t, d.DB)

	token, err := security.Sign([]byte(testSecret), security.SignedToken{
		Scope:     security.ScopeStream,
		Subject:   "9999",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stream/%d?token=%s", v.ID, token), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStreamServeExpiredToken(t *testing.T) {
	router, d := setup(t)
	v := seedVideo(t, d.DB)

	token, err := security.Sign([]byte(testSecret), security.SignedToken{
		Scope:     security.ScopeStream,
		Subject:   fmt.Sprint(v.ID),
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/stream/%d?token=%s", v.ID, token), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestStreamTokenUnpublishedVideo(t *testing.T) {
	router, d := setup(t)

	v := model.Video{Title: "Draft", FileKey: "vid/draft", Published: false, CreatedAt: time.Now().Unix()}
	require.NoError(t, d.DB.Create(&v).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/stream/%d/token", v.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
