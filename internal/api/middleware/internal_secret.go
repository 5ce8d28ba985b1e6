package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MetricsTokenHeader carries the scrape token for operational endpoints.
const MetricsTokenHeader = "X-Metrics-Token"

// MetricsTokenMiddleware 保护运维端点（/metrics）。token 为空时不做校验，
// 便于本地与集群内抓取。
func MetricsTokenMiddleware(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		// 只接受 Header，避免 query 泄露到日志。
		got := strings.TrimSpace(c.GetHeader(MetricsTokenHeader))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
