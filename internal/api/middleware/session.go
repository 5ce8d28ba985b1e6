package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"liveResume/internal/session"
)

// SessionHeader carries the session ID in both directions.
const SessionHeader = "X-Session-ID"

const sessionKey = "session"

// SessionMiddleware 根据 X-Session-ID 取出会话；缺失或未知时新建会话并在响应头回写新 ID。
func SessionMiddleware(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, created := registry.GetOrCreate(c.GetHeader(SessionHeader))
		c.Header(SessionHeader, s.ID)
		c.Set(sessionKey, s)

		log := LoggerFromContext(c).With(slog.String("session_id", s.ID))
		if created {
			log.Info("session opened by request")
		}
		c.Set(slogLoggerKey, log)

		c.Next()
	}
}

// SessionFromContext 返回当前请求的会话；未经过 SessionMiddleware 时为 nil。
func SessionFromContext(c *gin.Context) *session.Session {
	if value, ok := c.Get(sessionKey); ok {
		if s, ok := value.(*session.Session); ok {
			return s
		}
	}
	return nil
}
