package library

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
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

	require.NoError(t, db.AutoMigrate(
		&model.Video{},
		&model.Category{},
		&model.Favorite{},
		&model.Playlist{},
		&model.PlaylistItem{},
	))

	d := &internal.Deps{DB: db}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("requestID", "test")
		c.Set("userID", "u1")
	})

	router.PUT("/favorites/:id", func(c *gin.Context) { FavoriteAdd(c, d) })
	router.DELETE("/favorites/:id", func(c *gin.Context) { FavoriteRemove(c, d) })
	router.GET("/favorites", func(c *gin.Context) { FavoriteList(c, d) })
	router.POST("/playlists", func(c *gin.Context) { PlaylistCreate(c, d) })
	router.GET("/playlists/:id", func(c *gin.Context) { PlaylistFetch(c, d) })
	router.DELETE("/playlists/:id", func(c *gin.Context) { PlaylistDelete(c, d) })
	router.POST("/playlists/:id/items", func(c *gin.Context) { PlaylistAddItem(c, d) })
	router.DELETE("/playlists/:id/items/:videoId", func(c *gin.Context) { PlaylistRemoveItem(c, d) })

	return router, d
}

func seedVideo(t *testing.T, db *gorm.DB, title string) model.Video {
	t.Helper()

	v := model.Video{Title: title, Published: true, CreatedAt: time.Now().Unix()}
	require.NoError(t, db.Create(&v).Error)
	return v
}

func TestFavoriteAddTwiceConflicts(t *testing.T) {
	router, d := setup(t)
	v := seedVideo(t, d.DB, "a")

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/favorites/%d", v.ID), nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "request %d", i)
	}

	var count int64
	require.NoError(t, d.DB.Model(model.Favorite{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFavoriteRemoveMissing(t *testing.T) {
	router, _ := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/favorites/99", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteAddUnknownVideo(t *testing.T) {
	router, _ := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/favorites/99", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaylistDeleteRemovesItems(t *testing.T) {
	router, d := setup(t)
	v := seedVideo(t, d.DB, "a")

	p := model.Playlist{UserID: "u1", Name: "Warmup"}
	require.NoError(t, d.DB.Create(&p).Error)
	require.NoError(t, d.DB.Create(&model.PlaylistItem{PlaylistID: p.ID, VideoID: v.ID}).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/playlists/%d", p.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var items int64
	require.NoError(t, d.DB.Model(model.PlaylistItem{}).Count(&items).Error)
	assert.EqualValues(t, 0, items)
}

func TestPlaylistOwnershipHidden(t *testing.T) {
	router, d := setup(t)

	p := model.Playlist{UserID: "someone-else", Name: "Private"}
	require.NoError(t, d.DB.Create(&p).Error)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, fmt.Sprintf("/playlists/%d", p.ID), nil),
		httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/playlists/%d", p.ID), nil),
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", req.Method, req.URL.Path)
	}
}

func TestPlaylistPublicVisible(t *testing.T) {
	router, d := setup(t)

	p := model.Playlist{UserID: "someone-else", Name: "Festival set", Public: true}
	require.NoError(t, d.DB.Create(&p).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/playlists/%d", p.ID), nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPlaylistAddItemDuplicate(t *testing.T) {
	router, d := setup(t)
	v := seedVideo(t, d.DB, "a")

	p := model.Playlist{UserID: "u1", Name: "Warmup"}
	require.NoError(t, d.DB.Create(&p).Error)

	body := fmt.Sprintf(`{"video_id":%d}`, v.ID)

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/playlists/%d/items", p.ID), strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "request %d", i)
	}
}

func TestPlaylistItemPositionsIncrement(t *testing.T) {
	router, d := setup(t)
	a := seedVideo(t, d.DB, "a")
	b := seedVideo(t, d.DB, "b")

	p := model.Playlist{UserID: "u1", Name: "Set"}
	require.NoError(t, d.DB.Create(&p).Error)

	for _, v := range []model.Video{a, b} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/playlists/%d/items", p.ID),
			strings.NewReader(fmt.Sprintf(`{"video_id":%d}`, v.ID)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	var items []model.PlaylistItem
	require.NoError(t, d.DB.Where("playlist_id = ?", p.ID).Order("position ASC").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 1, items[1].Position)
}
