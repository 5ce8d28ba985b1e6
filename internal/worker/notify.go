package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NotifyMessage 是推送给会话 WebSocket 的导出结果消息（经 Redis Pub/Sub 转发）。
// 注意：这里的字段名与前端解析保持一致。
type NotifyMessage struct {
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	JobID         string   `json:"job_id"`
	Format        string   `json:"format"`
	CorrelationID string   `json:"correlation_id"`
	ErrorCode     int      `json:"error_code"`
	ErrorMessage  string   `json:"error_message"`
	Warnings      []string `json:"warnings,omitempty"`
}

// MessageTypeExport tags export notifications on the session channel.
const MessageTypeExport = "export"

// NotifyChannel is the Redis channel of a session.
func NotifyChannel(sessionID string) string {
	return fmt.Sprintf("session_notify:%s", sessionID)
}

type Notifier interface {
	Notify(ctx context.Context, sessionID string, msg NotifyMessage) error
}

// RedisNotifier publishes notifications on NotifyChannel.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, sessionID string, msg NotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(sessionID)
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
