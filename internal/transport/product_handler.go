package transport

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/middleware"
	"catalog-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Product form field names.
const (
	fieldName         = "name"
	fieldQuantity     = "qty"
	fieldRegularPrice = "regular_price"
	fieldSalePrice    = "sale_price"
	fieldSizes        = "size[]"
	fieldColors       = "color[]"
	fieldCategory     = "category"
	fieldThumbnail    = "thumbnail"
	fieldDescription  = "description"
)

// multipartOverhead is allowed on top of the upload limit for the text
// fields and part headers of a product form.
const multipartOverhead = 1 << 20

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	catalog        service.CatalogService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, maxUploadBytes int64, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:        catalog,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/form-options", h.FormOptions)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns products with their category name, newest first
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// FormOptions returns the sizes, colors and categories for the product form
func (h *ProductHandler) FormOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.catalog.ProductFormOptions(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, options)
}

// Create handles the multipart product form including its thumbnail
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.logger.Debug("Product form parse failed", zap.Error(err))

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithDomainError(w, h.logger,
				domain.Validation("upload exceeds the %d byte limit", h.maxUploadBytes))
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := h.productRequest(r)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	thumbnail, err := readThumbnail(r)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	req.Thumbnail = thumbnail

	product, err := h.catalog.AddProduct(r.Context(), req)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) productRequest(r *http.Request) (service.AddProductRequest, error) {
	req := service.AddProductRequest{
		Name:         r.FormValue(fieldName),
		RegularPrice: r.FormValue(fieldRegularPrice),
		SalePrice:    r.FormValue(fieldSalePrice),
		Quantity:     r.FormValue(fieldQuantity),
		Description:  r.FormValue(fieldDescription),
	}

	if raw := strings.TrimSpace(r.FormValue(fieldCategory)); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, domain.Validation("category must be an integer id").
				WithDetails(map[string]interface{}{"field": fieldCategory, "value": raw})
		}
		req.CategoryID = categoryID
	}

	var err error
	if req.SizeIDs, err = formIDs(r, fieldSizes); err != nil {
		return req, err
	}
	if req.ColorIDs, err = formIDs(r, fieldColors); err != nil {
		return req, err
	}

	return req, nil
}

// formIDs parses every value submitted under field as an id.
func formIDs(r *http.Request, field string) ([]int64, error) {
	values := r.MultipartForm.Value[field]
	ids := make([]int64, 0, len(values))
	for _, raw := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, domain.Validation("%s must contain integer ids", field).
				WithDetails(map[string]interface{}{"field": field, "value": raw})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readThumbnail returns nil when no file part was submitted.
func readThumbnail(r *http.Request) (*service.Upload, error) {
	file, header, err := r.FormFile(fieldThumbnail)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, domain.Validation("invalid thumbnail upload").WithCause(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.Storage(err, "failed to read thumbnail upload")
	}

	return &service.Upload{Filename: header.Filename, Data: data}, nil
}

// Get returns one product with its attributes
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product; its thumbnail file is kept
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
