package misc

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GinLogger is an access log middleware that skips the given path prefixes.
func GinLogger(log logrus.FieldLogger, prefixesToSkip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, pre := range prefixesToSkip {
			if strings.HasPrefix(path, pre) {
				return
			}
		}
		start := time.Now()

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"ip":      c.ClientIP(),
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch code := c.Writer.Status(); {
		case code >= 500:
			entry.Error("request")
		case code >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}
