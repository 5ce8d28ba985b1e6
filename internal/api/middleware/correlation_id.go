package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationHeader 贯穿 api、队列任务与 worker 通知。
const CorrelationHeader = "X-Correlation-ID"

const correlationIDKey = "correlationID"

// 导出任务表中 correlation_id 列宽为 64。
var correlationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,64}$`)

// CorrelationIDMiddleware 确保每个请求都带有 Correlation ID。
// 客户端传入的 ID 不合法时丢弃并重新生成，避免污染日志与任务记录。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationHeader)
		if !correlationIDPattern.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationHeader, id)

		c.Next()
	}
}

// GetCorrelationID 从上下文中取出 Correlation ID。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
