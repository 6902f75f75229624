package stream

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	chatHandler "github.com/zhouzirui/travel-tavern/backend/internal/handler/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/middleware"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/travel"
	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

// Handler manages streaming AI responses via Server-Sent Events
type Handler struct {
	concierge *travel.Concierge
	chat      *chatHandler.Handler
}

// New creates a new stream handler. chat supplies the HTML rendering used
// for the final message event.
func New(concierge *travel.Concierge, chat *chatHandler.Handler) *Handler {
	return &Handler{
		concierge: concierge,
		chat:      chat,
	}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	HTML      string `json:"html,omitempty"`
	Kind      string `json:"kind,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegisterRoutes mounts POST /chat/stream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var payload chatHandler.Request
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		status, message := chatHandler.StatusFor(travel.ErrEmptyMessage)
		utils.RespondError(w, status, message)
		return
	}
	if !h.concierge.Available() {
		status, message := chatHandler.StatusFor(travel.ErrAssistantUnavailable)
		utils.RespondError(w, status, message)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := middleware.SessionID(r.Context())
	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	utils.SendSSEEvent(w, flusher, "start", StreamResponse{Event: "start", SessionID: sessionID})

	reply, err := h.concierge.ReplyStream(r.Context(), sessionID, payload.Message, func(delta string) {
		utils.SendSSEEvent(w, flusher, "delta", StreamResponse{
			Event:     "delta",
			SessionID: sessionID,
			Content:   delta,
		})
	})
	if err != nil {
		_, message := chatHandler.StatusFor(err)
		log.Printf("[stream] reply failed session=%s: %v", sessionID, err)
		utils.SendSSEEvent(w, flusher, "error", StreamResponse{Event: "error", SessionID: sessionID, Error: message})
		return
	}

	utils.SendSSEEvent(w, flusher, "message", StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   reply.Content,
		HTML:      h.chat.RenderHTML(reply.Content),
		Kind:      reply.Kind,
	})
	utils.SendSSEEvent(w, flusher, "end", StreamResponse{Event: "end", SessionID: sessionID, Finished: true})

	log.Printf("[stream] completed response for session=%s kind=%s", sessionID, reply.Kind)
}
