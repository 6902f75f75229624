package page

import (
	"io/fs"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/travel-tavern/backend/pkg/utils"
)

// Handler 提供聊天页面、静态资源、健康检查和 OpenAPI 文档。
type Handler struct {
	assets    fs.FS
	openAPI   []byte
	available func() bool
}

// New 创建页面处理器。assets 需包含 index.html 和 static/ 目录。
func New(assets fs.FS, openAPI []byte, available func() bool) *Handler {
	return &Handler{
		assets:    assets,
		openAPI:   openAPI,
		available: available,
	}
}

// RegisterRoutes 注册页面相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Handle("/static/*", http.FileServer(http.FS(h.assets)))
	r.Get("/healthz", h.handleHealth)
	r.Get("/openapi.yaml", h.handleOpenAPI)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(h.assets, "index.html")
	if err != nil {
		log.Printf("[page] index.html missing: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"assistant": h.available(),
	})
}

func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openAPI)
}
