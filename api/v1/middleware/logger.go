package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go_netinv/internal/util"
)

// AccessLog logs one line per request
func AccessLog() gin.HandlerFunc {
	logger := util.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Round(time.Microsecond),
			"client_ip":  c.ClientIP(),
		})
		if user := c.GetString("username"); user != "" {
			entry = entry.WithField("user", user)
		}
		if c.Writer.Status() >= 500 {
			entry.Warn("request failed")
			return
		}
		entry.Info("request")
	}
}
