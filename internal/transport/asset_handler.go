package transport

import (
	"net/http"
	"strconv"

	"catalog-admin/internal/middleware"
	"catalog-admin/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AssetHandler serves stored thumbnails by their generated name
type AssetHandler struct {
	assets storage.AssetStore
	logger *zap.Logger
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(assets storage.AssetStore, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{
		assets: assets,
		logger: logger,
	}
}

// RegisterRoutes registers the asset route
func (h *AssetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/uploads/{name}", h.Get)
}

// Get writes the stored bytes with their detected content type
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	data, err := h.assets.Read(chi.URLParam(r, "name"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
