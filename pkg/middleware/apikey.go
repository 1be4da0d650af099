package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"thevideopool/pool-api/internal/model"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// KeyPrefix marks plaintext API keys so leaked keys are easy to grep for
const KeyPrefix = "vp_"

// Keys are looked up on every integration request, so resolved rows
// are held for a minute to keep the hot path off the database
var keyCache = func() *ttlcache.Cache {
	c := ttlcache.NewCache()
	c.SetTTL(time.Minute)
	c.SkipTTLExtensionOnHit(true)
	return c
}()

func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// NewAPIKeyMiddleware authenticates the /api/v1 surface with
// "Authorization: Bearer vp_..." keys and records a usage row per
// request
func NewAPIKeyMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || !strings.HasPrefix(raw, KeyPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing or malformed API key",
				"requestID": requestID,
			})
			return
		}

		hash := HashAPIKey(raw)

		var key model.APIKey

		if cached, err := keyCache.Get(hash); err == nil {
			key = cached.(model.APIKey)
		} else {
			err := d.Where("key_hash = ? AND active = ?", hash, true).First(&key).Error
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
						"error":     "Unknown or revoked API key",
						"requestID": requestID,
					})
					return
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to look up API key", zap.Error(err), zap.String("requestID", requestID))
				return
			}

			keyCache.Set(hash, key)
		}

		c.Set("apiKeyID", key.ID)
		c.Set("userID", key.UserID)
		c.Next()

		// Usage is recorded after the handler so the real status code
		// lands in the row. A failed insert only costs the audit entry
		now := time.Now()
		err := d.Create(&model.APIUsage{
			APIKeyID:  key.ID,
			Route:     c.FullPath(),
			Status:    c.Writer.Status(),
			CreatedAt: now,
		}).Error
		if err != nil {
			zap.L().Error("Failed to record API usage", zap.Error(err), zap.String("requestID", requestID))
		}

		d.Model(&model.APIKey{}).Where("id = ?", key.ID).UpdateColumn("last_used_at", now)
	}
}
