package traveler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

// Summary 只公开旅行者的名字，偏好属于私有数据。
type Summary struct {
	Name string `json:"name"`
}

// Handler traveler服务的HTTP处理器
type Handler struct {
	travelers traveler.Store
}

// New 创建traveler处理器
func New(travelers traveler.Store) *Handler {
	return &Handler{
		travelers: travelers,
	}
}

// RegisterRoutes 注册traveler相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/travelers", h.handleListTravelers)
}

// handleListTravelers 列出已知旅行者
func (h *Handler) handleListTravelers(w http.ResponseWriter, r *http.Request) {
	profiles := h.travelers.List()
	summaries := make([]Summary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, Summary{Name: p.Name})
	}
	utils.RespondJSON(w, http.StatusOK, summaries)
}
