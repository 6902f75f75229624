package ws

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatHandler "github.com/zhouzirui/travel-tavern/backend/internal/handler/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/middleware"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/travel"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler WebSocket聊天处理器。每个文本帧 {"message"} 对应一个 {"response","html"} 或 {"error"} 帧。
type Handler struct {
	concierge *travel.Concierge
	chat      *chatHandler.Handler
	upgrader  websocket.Upgrader
}

// New 创建WebSocket处理器
func New(concierge *travel.Concierge, chat *chatHandler.Handler) *Handler {
	return &Handler{
		concierge: concierge,
		chat:      chat,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	// The upgrade response bypasses w.Header(), so carry over the session
	// cookie the Session middleware may have set.
	responseHeader := http.Header{}
	for _, c := range w.Header().Values("Set-Cookie") {
		responseHeader.Add("Set-Cookie", c)
	}

	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		var msg chatHandler.Request
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := conn.WriteJSON(h.answer(ctx, sessionID, msg.Message)); err != nil {
			log.Printf("[websocket] write failed: %v", err)
			return
		}
	}
}

func (h *Handler) answer(ctx context.Context, sessionID, message string) chatHandler.Response {
	if strings.TrimSpace(message) == "" {
		return chatHandler.Response{Error: "message is required"}
	}

	reply, err := h.concierge.Reply(ctx, sessionID, message)
	if err != nil {
		_, text := chatHandler.StatusFor(err)
		log.Printf("[websocket] reply failed session=%s: %v", sessionID, err)
		return chatHandler.Response{Error: text}
	}

	return chatHandler.Response{
		Response: reply.Content,
		HTML:     h.chat.RenderHTML(reply.Content),
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
