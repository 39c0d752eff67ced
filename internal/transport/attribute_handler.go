package transport

import (
	"net/http"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AttributeRequest represents the create and update payload
type AttributeRequest struct {
	Value string `json:"value" validate:"required,max=255"`
	Type  string `json:"type" validate:"required,oneof=size color"`
}

// AttributeHandler handles HTTP requests for attribute operations
type AttributeHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewAttributeHandler creates a new AttributeHandler
func NewAttributeHandler(catalog service.CatalogService, logger *zap.Logger) *AttributeHandler {
	return &AttributeHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all attribute routes
func (h *AttributeHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin/attributes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns attributes, newest first, optionally filtered by ?type=
func (h *AttributeHandler) List(w http.ResponseWriter, r *http.Request) {
	var attrType *domain.AttributeType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t := domain.AttributeType(raw)
		attrType = &t
	}

	attributes, err := h.catalog.ListAttributes(r.Context(), attrType)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, attributes)
}

// Create handles attribute creation
func (h *AttributeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AttributeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	attribute, err := h.catalog.AddAttribute(r.Context(), req.Value, domain.AttributeType(req.Type))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, attribute)
}

// Get returns one attribute for editing
func (h *AttributeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	attribute, err := h.catalog.GetAttribute(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, attribute)
}

// Update changes an attribute's value and type
func (h *AttributeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req AttributeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	attribute, err := h.catalog.UpdateAttribute(r.Context(), id, req.Value, domain.AttributeType(req.Type))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, attribute)
}

// Delete removes an attribute and reports its value
func (h *AttributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	attribute, err := h.catalog.DeleteAttribute(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, DeletedResponse{
		Message: "Attribute " + attribute.Value + " deleted",
		Deleted: attribute,
	})
}
