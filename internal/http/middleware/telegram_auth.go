package middleware

import (
	"net/http"
	"time"

	"referral_ledger/internal/logger"
	"referral_ledger/internal/telegram"

	"github.com/gin-gonic/gin"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"

	initDataUserKey = "init_data_telegram_id"
)

// TelegramInitData requires signed Mini App init data on mutating requests
// and stores the signed user id for the handlers to compare against
func TelegramInitData(botToken string, maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "init data required"})
			return
		}

		values, err := telegram.ValidateInitData(raw, botToken, maxAge)
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("init data rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
			return
		}

		user, err := telegram.ParseUser(values)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
			return
		}

		c.Set(initDataUserKey, user.ID)
		c.Next()
	}
}

// InitDataTelegramID returns the user id from verified init data, if any
func InitDataTelegramID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(initDataUserKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
