package chat

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/travel-tavern/backend/internal/middleware"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/render"
	chatService "github.com/zhouzirui/travel-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/travel"
	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

// Request 是 POST /chat 的请求体
type Request struct {
	Message string `json:"message"`
}

// Response 是 POST /chat 的响应体。Response 为 Markdown，HTML 为净化后的渲染结果。
type Response struct {
	Response string `json:"response,omitempty"`
	HTML     string `json:"html,omitempty"`
	Error    string `json:"error,omitempty"`
}

// History 是会话记录
type History struct {
	SessionID string         `json:"sessionId"`
	Messages  []chat.Message `json:"messages"`
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	concierge *travel.Concierge
	chatSvc   *chatService.Service
	sanitize  bool
}

// New 创建聊天处理器
func New(concierge *travel.Concierge, chatSvc *chatService.Service, sanitize bool) *Handler {
	return &Handler{
		concierge: concierge,
		chatSvc:   chatSvc,
		sanitize:  sanitize,
	}
}

// RegisterRoutes 注册聊天相关的路由。调用方负责挂载 Session 中间件；
// 历史记录路由也可以挂在 OptionalSession 之后，没有会话时返回空记录。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Get("/api/history", h.HandleHistory)
	r.Delete("/api/history", h.HandleResetHistory)
}

// HandleChat 处理一轮对话
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload Request
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := middleware.SessionID(r.Context())
	reply, err := h.concierge.Reply(r.Context(), sessionID, payload.Message)
	if err != nil {
		status, message := StatusFor(err)
		log.Printf("[chat] reply failed session=%s status=%d: %v", sessionID, status, err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, Response{
		Response: reply.Content,
		HTML:     h.RenderHTML(reply.Content),
	})
}

// RenderHTML renders reply Markdown, sanitized unless disabled.
func (h *Handler) RenderHTML(markdown string) string {
	if h.sanitize {
		return render.HTML(markdown)
	}
	return render.UnsafeHTML(markdown)
}

// HandleHistory 返回当前会话的记录
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		utils.RespondJSON(w, http.StatusOK, History{Messages: []chat.Message{}})
		return
	}
	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		status, message := StatusFor(err)
		utils.RespondError(w, status, message)
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}

	utils.RespondJSON(w, http.StatusOK, History{SessionID: sessionID, Messages: messages})
}

// HandleResetHistory 清空当前会话的记录
func (h *Handler) HandleResetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if sessionID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.chatSvc.ResetTranscript(r.Context(), sessionID); err != nil {
		status, message := StatusFor(err)
		utils.RespondError(w, status, message)
		return
	}
	log.Printf("[chat] cleared transcript session=%s", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps service errors to an HTTP status and client-facing message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, travel.ErrEmptyMessage):
		return http.StatusBadRequest, "message is required"
	case errors.Is(err, travel.ErrAssistantUnavailable):
		return http.StatusServiceUnavailable, "AI model is not initialized. Check the API key configuration."
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
