package email

import (
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

const testSecret = "email-test-secret"

func setup(t *testing.T) (*gin.Engine, *internal.Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	viper.Set("security.stream_secret", testSecret)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.EmailSubscriber{}))

	d := &internal.Deps{DB: db}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("requestID", "test")
	})

	router.POST("/subscribe", func(c *gin.Context) { EmailSubscribe(c, d) })
	router.GET("/unsubscribe", func(c *gin.Context) { EmailUnsubscribe(c, d) })

	return router, d
}

func subscribe(router *gin.Engine, email string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/subscribe",
		strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSubscribeIdempotent(t *testing.T) {
	router, d := setup(t)

	for i := 0; i < 2; i++ {
		w := subscribe(router, "dj@example.com")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}

	var count int64
	require.NoError(t, d.DB.Model(model.EmailSubscriber{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubscribeRejectsBadAddress(t *testing.T) {
	router, _ := setup(t)

	w := subscribe(router, "not-an-email")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnsubscribeWithToken(t *testing.T) {
	router, d := setup(t)

	require.NoError(t, d.DB.Create(&model.EmailSubscriber{
		Email:        "dj@example.com",
		IsSubscribed: true,
		SubscribedAt: time.Now(),
	}).Error)

	token, err := security.Sign([]byte(testSecret), security.SignedToken{
		Scope:     security.ScopeUnsubscribe,
		Subject:   "dj@example.com",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token="+token, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var sub model.EmailSubscriber
	require.NoError(t, d.DB.First(&sub, "email = ?", "dj@example.com").Error)
	assert.False(t, sub.IsSubscribed)
	require.NotNil(t, sub.UnsubscribedAt)
	assert.WithinDuration(t, time.Now(), *sub.UnsubscribedAt, time.Minute)
}

func TestUnsubscribeRejectsWrongScope(t *testing.T) {
	router, _ := setup(t)

	token, err := security.Sign([]byte(testSecret), security.SignedToken{
		Scope:     security.ScopeStream,
		Subject:   "dj@example.com",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/unsubscribe?token="+token, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestResubscribeClearsOptOut(t *testing.T) {
	router, d := setup(t)

	now := time.Now()
	require.NoError(t, d.DB.Create(&model.EmailSubscriber{
		Email:          "dj@example.com",
		IsSubscribed:   false,
		SubscribedAt:   now.AddDate(0, -1, 0),
		UnsubscribedAt: &now,
	}).Error)

	w := subscribe(router, "dj@example.com")
	assert.Equal(t, http.StatusOK, w.Code)

	var sub model.EmailSubscriber
	require.NoError(t, d.DB.First(&sub, "email = ?", "dj@example.com").Error)
	assert.True(t, sub.IsSubscribed)
	assert.Nil(t, sub.UnsubscribedAt)
}
