// Package app contains all endpoints available
package app

import (
	"fmt"
	"time"

	"thevideopool/pool-api/app/admin"
	"thevideopool/pool-api/app/category"
	"thevideopool/pool-api/app/download"
	"thevideopool/pool-api/app/email"
	"thevideopool/pool-api/app/library"
	"thevideopool/pool-api/app/membership"
	"thevideopool/pool-api/app/notification"
	"thevideopool/pool-api/app/recommend"
	"thevideopool/pool-api/app/root"
	"thevideopool/pool-api/app/stream"
	"thevideopool/pool-api/app/user"
	"thevideopool/pool-api/app/video"
	"thevideopool/pool-api/db"
	"thevideopool/pool-api/internal"
	"thevideopool/pool-api/internal/service"
	"thevideopool/pool-api/internal/storage"
	"thevideopool/pool-api/internal/ws"
	"thevideopool/pool-api/pkg/metrics"
	"thevideopool/pool-api/pkg/middleware"
	"thevideopool/pool-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store persist.CacheStore

func NewRouter() (*gin.Engine, error) {
	makeLogger()
	makeCacheStore()

	d := &internal.Deps{}

	conn, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = conn

	if err := db.SeedCatalog(conn); err != nil {
		return nil, fmt.Errorf("failed to seed catalog, %w", err)
	}

	router := gin.New()

	origins := viper.GetStringSlice("host.cors")

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Range"},
			ExposeHeaders:    []string{"Content-Length", "Content-Range", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		metrics.Middleware(),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	rateLimit := viper.GetInt("security.rate_limit")

	jwt := middleware.NewJWTMiddleware(conn)
	adminOnly := middleware.RequireAdmin()
	apiKey := middleware.NewAPIKeyMiddleware(conn)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
		CleanupInterval:   time.Second,
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	bodyLimit := middleware.BodySizeLimiter(viper.GetInt64("security.body_limit_mb") << 20)

	m := router.Group("/api", rateLimiter, bodyLimit)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, root.Validate)
	}

	u := m.Group("/users")
	{
		// GET /api/users		-> Returns the basic info of a user
		u.GET("", jwt, func(c *gin.Context) { user.UserFetch(c, d) })

		// POST /api/users 		-> Registers a new user
		u.POST("", func(c *gin.Context) { user.UserRegister(c, d) })

		// POST /api/users/login 	-> Logs in a user and returns a JWT token
		u.POST("/login", func(c *gin.Context) { user.UserLogin(c, d) })

		// POST /api/users/logout	-> Clears the auth cookies
		u.POST("/logout", user.UserLogout)

		// POST /api/users/verify	-> Verifies a new user
		u.POST("/verify", func(c *gin.Context) { user.UserVerify(c, d) })
	}

	v := m.Group("/videos")
	{
		// GET /api/videos		-> Pages through the published catalog
		v.GET("", cacheFor(15), func(c *gin.Context) { video.VideoFetchBulk(c, d) })

		// GET /api/videos/search	-> Searches titles and tags
		v.GET("/search", cacheFor(15), func(c *gin.Context) { video.VideoSearch(c, d) })

		// GET /api/videos/:id		-> Returns one published video
		v.GET("/:id", cacheFor(60), func(c *gin.Context) { video.VideoFetch(c, d) })

		// GET /api/videos/:id/preview	-> Redirects to the watermarked preview
		v.GET("/:id/preview", func(c *gin.Context) { video.VideoPreview(c, d) })
	}

	cat := m.Group("/categories")
	{
		// GET /api/categories		-> Lists categories with video counts
		cat.GET("", cacheFor(5*60), func(c *gin.Context) { category.CategoryList(c, d) })
	}

	mem := m.Group("/memberships")
	{
		// GET /api/memberships		-> Lists the billing tiers
		mem.GET("", cacheFor(5*60), func(c *gin.Context) { membership.MembershipList(c, d) })

		// POST /api/memberships/subscribe -> Switches the user's tier
		mem.POST("/subscribe", jwt, func(c *gin.Context) { membership.MembershipSubscribe(c, d) })

		// GET /api/memberships/usage	-> Quota left this billing period
		mem.GET("/usage", jwt, func(c *gin.Context) { membership.MembershipUsage(c, d) })
	}

	dl := m.Group("/downloads", jwt)
	{
		// POST /api/downloads/:id	-> Charges the quota and redirects to the file.
		// POST because it spends quota, a cached or prefetched GET must
		// never burn a download
		dl.POST("/:id", func(c *gin.Context) { download.DownloadSingle(c, d) })

		// GET /api/downloads		-> The user's download history
		dl.GET("", func(c *gin.Context) { download.DownloadHistory(c, d) })

		// POST /api/downloads/bulk	-> Queues a bulk archive build
		dl.POST("/bulk", func(c *gin.Context) { download.DownloadBulk(c, d) })

		// GET /api/downloads/bulk/:id	-> Build status, plus the fetch URL once ready
		dl.GET("/bulk/:id", func(c *gin.Context) { download.DownloadBulkStatus(c, d) })
	}

	// The archive file itself is fetched with a signed token, not a
	// cookie, so download managers and new tabs work
	m.GET("/downloads/bulk/:id/file", func(c *gin.Context) { download.DownloadBulkFile(c, d) })

	st := m.Group("/stream")
	{
		// POST /api/stream/:id/token	-> Mints a playback token
		st.POST("/:id/token", jwt, func(c *gin.Context) { stream.StreamToken(c, d) })

		// GET /api/stream/:id		-> Token-gated redirect to the media
		st.GET("/:id", func(c *gin.Context) { stream.StreamServe(c, d) })
	}

	lib := m.Group("/library", jwt)
	{
		// PUT /api/library/favorites/:id	-> Adds a favorite
		lib.PUT("/favorites/:id", func(c *gin.Context) { library.FavoriteAdd(c, d) })

		// DELETE /api/library/favorites/:id	-> Removes a favorite
		lib.DELETE("/favorites/:id", func(c *gin.Context) { library.FavoriteRemove(c, d) })

		// GET /api/library/favorites		-> Lists favorites
		lib.GET("/favorites", func(c *gin.Context) { library.FavoriteList(c, d) })

		// POST /api/library/playlists		-> Creates a playlist
		lib.POST("/playlists", func(c *gin.Context) { library.PlaylistCreate(c, d) })

		// GET /api/library/playlists		-> Lists the user's playlists
		lib.GET("/playlists", func(c *gin.Context) { library.PlaylistList(c, d) })

		// GET /api/library/playlists/:id	-> One playlist with items
		lib.GET("/playlists/:id", func(c *gin.Context) { library.PlaylistFetch(c, d) })

		// PATCH /api/library/playlists/:id	-> Renames or republishes a playlist
		lib.PATCH("/playlists/:id", func(c *gin.Context) { library.PlaylistEdit(c, d) })

		// DELETE /api/library/playlists/:id	-> Deletes a playlist and its items
		lib.DELETE("/playlists/:id", func(c *gin.Context) { library.PlaylistDelete(c, d) })

		// POST /api/library/playlists/:id/items -> Adds a video to a playlist
		lib.POST("/playlists/:id/items", func(c *gin.Context) { library.PlaylistAddItem(c, d) })

		// DELETE /api/library/playlists/:id/items/:videoId -> Removes a video
		lib.DELETE("/playlists/:id/items/:videoId", func(c *gin.Context) { library.PlaylistRemoveItem(c, d) })
	}

	// GET /api/recommendations	-> Personal feed from download history
	m.GET("/recommendations", jwt, func(c *gin.Context) { recommend.Recommend(c, d) })

	n := m.Group("/notifications", jwt)
	{
		// GET /api/notifications	-> The user's inbox
		n.GET("", func(c *gin.Context) { notification.NotificationList(c, d) })

		// POST /api/notifications/:id/read -> Marks one (or "all") as read
		n.POST("/:id/read", func(c *gin.Context) { notification.NotificationRead(c, d) })
	}

	em := m.Group("/email")
	{
		// POST /api/email/subscribe	-> Newsletter opt-in
		em.POST("/subscribe", func(c *gin.Context) { email.EmailSubscribe(c, d) })

		// GET /api/email/unsubscribe	-> Opt-out via the signed footer link
		em.GET("/unsubscribe", func(c *gin.Context) { email.EmailUnsubscribe(c, d) })
	}

	adm := m.Group("/admin", jwt, adminOnly)
	{
		adm.GET("/users", func(c *gin.Context) { admin.UserList(c, d) })
		adm.PATCH("/users/:id", func(c *gin.Context) { admin.UserPatch(c, d) })
		adm.DELETE("/users/:id", func(c *gin.Context) { admin.UserDelete(c, d) })

		adm.POST("/videos", func(c *gin.Context) { video.VideoCreate(c, d) })
		adm.POST("/videos/bulk", func(c *gin.Context) { video.VideoBulkUpload(c, d) })
		adm.PATCH("/videos/:id", func(c *gin.Context) { video.VideoEdit(c, d) })
		adm.DELETE("/videos/:id", func(c *gin.Context) { video.VideoDelete(c, d) })

		adm.POST("/categories", func(c *gin.Context) { category.CategoryCreate(c, d) })
		adm.PATCH("/categories/:id", func(c *gin.Context) { category.CategoryEdit(c, d) })
		adm.DELETE("/categories/:id", func(c *gin.Context) { category.CategoryDelete(c, d) })

		adm.POST("/campaigns", func(c *gin.Context) { admin.CampaignCreate(c, d) })
		adm.GET("/campaigns", func(c *gin.Context) { admin.CampaignList(c, d) })
		adm.GET("/campaigns/:id", func(c *gin.Context) { admin.CampaignFetch(c, d) })
		adm.PATCH("/campaigns/:id", func(c *gin.Context) { admin.CampaignEdit(c, d) })
		adm.POST("/campaigns/:id/send", func(c *gin.Context) { admin.CampaignSend(c, d) })
		adm.POST("/campaigns/:id/schedule", func(c *gin.Context) { admin.CampaignSchedule(c, d) })
		adm.POST("/campaigns/:id/cancel", func(c *gin.Context) { admin.CampaignCancel(c, d) })
		adm.GET("/subscribers", func(c *gin.Context) { admin.SubscriberList(c, d) })

		adm.GET("/analytics/overview", func(c *gin.Context) { admin.AnalyticsOverview(c, d) })
		adm.GET("/analytics/downloads", func(c *gin.Context) { admin.AnalyticsDownloadsPerDay(c, d) })
		adm.GET("/analytics/top-videos", func(c *gin.Context) { admin.AnalyticsTopVideos(c, d) })
		adm.GET("/analytics/campaigns", func(c *gin.Context) { admin.AnalyticsCampaigns(c, d) })

		adm.GET("/claims", func(c *gin.Context) { admin.ClaimList(c, d) })
		adm.POST("/claims", func(c *gin.Context) { admin.ClaimFile(c, d) })
		adm.POST("/claims/:id/resolve", func(c *gin.Context) { admin.ClaimResolve(c, d) })
		adm.GET("/videos/:id/rights", func(c *gin.Context) { admin.RightList(c, d) })
		adm.POST("/videos/:id/rights", func(c *gin.Context) { admin.RightCreate(c, d) })
		adm.GET("/videos/:id/analysis", func(c *gin.Context) { admin.AnalysisGet(c, d) })
		adm.POST("/videos/:id/analysis", func(c *gin.Context) { admin.AnalysisRun(c, d) })

		adm.POST("/apikeys", func(c *gin.Context) { admin.APIKeyCreate(c, d) })
		adm.GET("/apikeys", func(c *gin.Context) { admin.APIKeyList(c, d) })
		adm.POST("/apikeys/:id/deactivate", func(c *gin.Context) { admin.APIKeyDeactivate(c, d) })
		adm.GET("/apikeys/:id/usage", func(c *gin.Context) { admin.APIKeyUsage(c, d) })
	}

	// Machine surface for integrations, API key auth instead of cookies
	api := router.Group("/api/v1", rateLimiter, apiKey)
	{
		api.GET("/videos", func(c *gin.Context) { video.VideoFetchBulk(c, d) })
		api.GET("/videos/search", func(c *gin.Context) { video.VideoSearch(c, d) })
		api.GET("/videos/:id", func(c *gin.Context) { video.VideoFetch(c, d) })
		api.POST("/downloads/:id", func(c *gin.Context) { download.DownloadSingle(c, d) })
	}

	d.Argon = security.New()

	s3, err := storage.NewS3()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
	}
	d.Store = s3

	d.Mailer = service.NewSMTPMailer()
	d.Hub = ws.NewHub()
	d.Tasks = service.NewTaskClient()
	d.Sender = service.NewCampaignSender(conn, d.Mailer)
	d.Archiver = &service.Archiver{
		DB:     conn,
		Store:  d.Store,
		Hub:    d.Hub,
		Dir:    viper.GetString("downloads.archive_dir"),
		MaxAge: time.Duration(viper.GetInt("downloads.archive_max_age_hours")) * time.Hour,
	}

	// GET /api/ws -> Live notification feed
	m.GET("/ws", jwt, func(c *gin.Context) { notification.NotificationSocket(d.Hub)(c, d) })

	if _, err := service.StartWorker(d.Sender, d.Archiver); err != nil {
		return nil, err
	}

	service.StartSweeps(conn)

	// Check for useless tokens every day because they expire rarely
	go service.TokenCleanup(time.Hour*24, conn)

	return router, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

// The response cache sits in redis when one is configured so multiple
// instances share it, otherwise it falls back to process memory
func makeCacheStore() {
	if addr := viper.GetString("redis.addr"); addr != "" {
		store = persist.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		}))
		return
	}

	store = persist.NewMemoryStore(time.Minute)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
