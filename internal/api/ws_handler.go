package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"liveResume/internal/resume"
	"liveResume/internal/session"
	"liveResume/internal/worker"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 5 * time.Second
)

// WsHandler 负责 WebSocket 会话绑定与消息转发：文档快照来自会话 Store，导出通知来自 Redis。
type WsHandler struct {
	registry       *session.Registry
	redisClient    *redis.Client
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

// NewWsHandler 构造 WebSocket 处理器。redisClient 为空时只推送文档快照。
func NewWsHandler(registry *session.Registry, redisClient *redis.Client, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		registry:       registry,
		redisClient:    redisClient,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(h.allowedOrigins) == 0 {
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
	return h
}

type wsHelloMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

type wsDocumentMessage struct {
	Type     string          `json:"type"`
	Document resume.Document `json:"document"`
}

// HandleConnection 负责升级连接并启动读写循环。
// 会话可通过 ?session_id= 指定，否则等待客户端发送 {"type":"session","session_id":"..."}。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	baseLog := h.logger.With(
		slog.String("client_ip", c.ClientIP()),
	)

	sessionCh := make(chan *session.Session, 1)
	errCh := make(chan error, 2)

	if id := c.Query("session_id"); id != "" {
		s, ok := h.registry.Get(id)
		if !ok {
			writeClose(conn, websocket.ClosePolicyViolation, "unknown session")
			return
		}
		sessionCh <- s
	}

	go h.readLoop(ctx, conn, len(sessionCh) == 0, sessionCh, errCh, cancel, baseLog)

	var s *session.Session
	select {
	case <-ctx.Done():
		return
	case err := <-errCh:
		if err != nil {
			baseLog.Warn("websocket session binding failed", slog.Any("error", err))
		}
		return
	case s = <-sessionCh:
	}

	sessionLog := baseLog.With(slog.String("session_id", s.ID))
	sessionLog.Info("websocket bound to session")
	go h.writeLoop(ctx, conn, s, errCh, cancel, sessionLog)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sessionLog.Info("websocket connection closed", slog.Any("error", err))
		} else {
			sessionLog.Info("websocket connection closed")
		}
	}
}

func (h *WsHandler) readLoop(
	ctx context.Context,
	conn *websocket.Conn,
	needHello bool,
	sessionCh chan<- *session.Session,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			writeClose(conn, websocket.CloseAbnormalClosure, "read error")
			errCh <- fmt.Errorf("read message: %w", err)
			cancel()
			return
		}

		if needHello {
			var hello wsHelloMessage
			if err := json.Unmarshal(message, &hello); err != nil {
				writeClose(conn, websocket.ClosePolicyViolation, "invalid session payload")
				errCh <- fmt.Errorf("decode session payload: %w", err)
				cancel()
				return
			}
			if hello.Type != "session" || hello.SessionID == "" {
				writeClose(conn, websocket.ClosePolicyViolation, "session required")
				errCh <- fmt.Errorf("invalid session message")
				cancel()
				return
			}
			s, ok := h.registry.Get(hello.SessionID)
			if !ok {
				writeClose(conn, websocket.ClosePolicyViolation, "unknown session")
				errCh <- fmt.Errorf("unknown session %q", hello.SessionID)
				cancel()
				return
			}

			needHello = false
			sessionCh <- s
			log.Info("websocket session message accepted", slog.String("session_id", s.ID))
			continue
		}

		// 客户端的编辑走 HTTP，这里只用于检测断开。
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(wsWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

// writeLoop 是连接上唯一的数据帧写入者。
func (h *WsHandler) writeLoop(
	ctx context.Context,
	conn *websocket.Conn,
	s *session.Session,
	errCh chan<- error,
	cancel context.CancelFunc,
	log *slog.Logger,
) {
	docs, unsubscribe := s.Store.Subscribe()
	defer unsubscribe()

	var notifications <-chan *redis.Message
	if h.redisClient != nil {
		channel := worker.NotifyChannel(s.ID)
		pubsub := h.redisClient.Subscribe(ctx, channel)
		defer pubsub.Close()
		notifications = pubsub.Channel()
		log.Info("subscribed to redis channel", slog.String("channel", channel))
	}

	fail := func(err error) {
		errCh <- err
		cancel()
	}

	if err := writeJSON(conn, wsDocumentMessage{Type: "document", Document: s.Store.Read()}); err != nil {
		fail(fmt.Errorf("write initial document: %w", err))
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-docs:
			if !ok {
				fail(fmt.Errorf("document subscription closed"))
				return
			}
			if err := writeJSON(conn, wsDocumentMessage{Type: "document", Document: doc}); err != nil {
				fail(fmt.Errorf("write document: %w", err))
				return
			}
		case msg, ok := <-notifications:
			if !ok {
				fail(fmt.Errorf("pubsub channel closed"))
				return
			}
			log.Info("forwarding message to client", slog.String("channel", msg.Channel))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				fail(fmt.Errorf("write message: %w", err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				fail(fmt.Errorf("write ping: %w", err))
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}
