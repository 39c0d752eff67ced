package service

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultOperationTimeout bounds a single catalog operation when no timeout
// is configured.
const DefaultOperationTimeout = 10 * time.Second

// maxPrice is the largest value a DECIMAL(10, 2) column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

const (
	maxPriceLength = 32
	maxPriceScale  = 10
)

// Upload is a submitted file as received from the presentation layer.
type Upload struct {
	Filename string
	Data     []byte
}

// AddProductRequest carries the raw product form fields. Numeric fields are
// strings so that parsing failures surface as validation errors.
type AddProductRequest struct {
	Name         string  `validate:"required,max=255"`
	RegularPrice string  `validate:"required"`
	SalePrice    string
	Quantity     string  `validate:"required"`
	CategoryID   int64   `validate:"required,gt=0"`
	SizeIDs      []int64 `validate:"dive,gt=0"`
	ColorIDs     []int64 `validate:"dive,gt=0"`
	Description  string
	Thumbnail    *Upload
}

type categoryRequest struct {
	Name string `validate:"required,max=255"`
}

type attributeRequest struct {
	Value string               `validate:"required,max=255"`
	Type  domain.AttributeType `validate:"required,oneof=size color"`
}

// FormOptions are the selectable values offered by the product form.
type FormOptions struct {
	Sizes      []*domain.Attribute `json:"sizes"`
	Colors     []*domain.Attribute `json:"colors"`
	Categories []*domain.Category  `json:"categories"`
}

// CatalogService defines the admin use cases over categories, attributes and
// products
type CatalogService interface {
	AddCategory(ctx context.Context, name string) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) (*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	AddAttribute(ctx context.Context, value string, attrType domain.AttributeType) (*domain.Attribute, error)
	UpdateAttribute(ctx context.Context, id int64, value string, attrType domain.AttributeType) (*domain.Attribute, error)
	DeleteAttribute(ctx context.Context, id int64) (*domain.Attribute, error)
	GetAttribute(ctx context.Context, id int64) (*domain.Attribute, error)
	ListAttributes(ctx context.Context, attrType *domain.AttributeType) ([]*domain.Attribute, error)

	AddProduct(ctx context.Context, req AddProductRequest) (*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]*domain.ProductWithCategory, error)
	ProductFormOptions(ctx context.Context) (*FormOptions, error)
}

type catalogService struct {
	categoryRepo  repository.CategoryRepository
	attributeRepo repository.AttributeRepository
	productRepo   repository.ProductRepository
	guard         repository.UniquenessGuard
	assets        storage.AssetStore
	validate      *validator.Validate
	timeout       time.Duration
	logger        *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	attributeRepo repository.AttributeRepository,
	productRepo repository.ProductRepository,
	guard repository.UniquenessGuard,
	assets storage.AssetStore,
	timeout time.Duration,
	logger *zap.Logger,
) CatalogService {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &catalogService{
		categoryRepo:  categoryRepo,
		attributeRepo: attributeRepo,
		productRepo:   productRepo,
		guard:         guard,
		assets:        assets,
		validate:      validator.New(),
		timeout:       timeout,
		logger:        logger,
	}
}

func (s *catalogService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// AddCategory creates a category unless one with the same name exists
func (s *catalogService) AddCategory(ctx context.Context, name string) (*domain.Category, error) {
	if err := s.check(categoryRequest{Name: name}); err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	exists, err := s.guard.ExistsWithValue(ctx, repository.EntityCategory, "name", name)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Warn("Duplicate category rejected", zap.String("name", name))
		return nil, repository.ErrCategoryAlreadyExists.WithDetails(map[string]interface{}{"name": name})
	}

	category := &domain.Category{Name: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, s.logFailure("create category", err)
	}

	s.logger.Info("Category created", zap.Int64("category_id", category.ID), zap.String("name", name))
	return category, nil
}

// UpdateCategory renames a category
func (s *catalogService) UpdateCategory(ctx context.Context, id int64, name string) (*domain.Category, error) {
	if err := s.check(categoryRequest{Name: name}); err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	category := &domain.Category{ID: id, Name: name}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, s.logFailure("update category", err)
	}

	s.logger.Info("Category updated", zap.Int64("category_id", id), zap.String("name", name))
	return category, nil
}

// DeleteCategory removes a category and returns it as it was
func (s *catalogService) DeleteCategory(ctx context.Context, id int64) (*domain.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	category, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		return nil, s.logFailure("delete category", err)
	}

	s.logger.Info("Category deleted", zap.Int64("category_id", id), zap.String("name", category.Name))
	return category, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.categoryRepo.FindByID(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.categoryRepo.List(ctx)
}

// AddAttribute creates an attribute unless the same value already exists for
// its type
func (s *catalogService) AddAttribute(ctx context.Context, value string, attrType domain.AttributeType) (*domain.Attribute, error) {
	if err := s.check(attributeRequest{Value: value, Type: attrType}); err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	exists, err := s.guard.ExistsWithValue(ctx, repository.EntityAttribute, "value", value,
		repository.Filter{Field: "type", Value: string(attrType)})
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Warn("Duplicate attribute rejected", zap.String("value", value), zap.String("type", string(attrType)))
		return nil, repository.ErrAttributeAlreadyExists.WithDetails(map[string]interface{}{
			"value": value,
			"type":  string(attrType),
		})
	}

	attribute := &domain.Attribute{Value: value, Type: attrType}
	if err := s.attributeRepo.Create(ctx, attribute); err != nil {
		return nil, s.logFailure("create attribute", err)
	}

	s.logger.Info("Attribute created",
		zap.Int64("attribute_id", attribute.ID),
		zap.String("value", value),
		zap.String("type", string(attrType)),
	)
	return attribute, nil
}

// UpdateAttribute changes the value and type of an attribute and returns it
// with the new value
func (s *catalogService) UpdateAttribute(ctx context.Context, id int64, value string, attrType domain.AttributeType) (*domain.Attribute, error) {
	if err := s.check(attributeRequest{Value: value, Type: attrType}); err != nil {
		return nil, err
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	attribute := &domain.Attribute{ID: id, Value: value, Type: attrType}
	if err := s.attributeRepo.Update(ctx, attribute); err != nil {
		return nil, s.logFailure("update attribute", err)
	}

	s.logger.Info("Attribute updated", zap.Int64("attribute_id", id), zap.String("value", value))
	return attribute, nil
}

// DeleteAttribute removes an attribute and returns it as it was
func (s *catalogService) DeleteAttribute(ctx context.Context, id int64) (*domain.Attribute, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	attribute, err := s.attributeRepo.Delete(ctx, id)
	if err != nil {
		return nil, s.logFailure("delete attribute", err)
	}

	s.logger.Info("Attribute deleted", zap.Int64("attribute_id", id), zap.String("value", attribute.Value))
	return attribute, nil
}

func (s *catalogService) GetAttribute(ctx context.Context, id int64) (*domain.Attribute, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.attributeRepo.FindByID(ctx, id)
}

// ListAttributes lists attributes, restricted to one type when attrType is
// non-nil
func (s *catalogService) ListAttributes(ctx context.Context, attrType *domain.AttributeType) ([]*domain.Attribute, error) {
	if attrType != nil && !attrType.Valid() {
		return nil, domain.Validation("unknown attribute type %q", *attrType)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.attributeRepo.List(ctx, attrType)
}

// AddProduct validates the form, stores the thumbnail and writes the product
// with its attribute links. The thumbnail is stored before the database
// write; if that write fails the stored file is left in place.
func (s *catalogService) AddProduct(ctx context.Context, req AddProductRequest) (*domain.Product, error) {
	product, err := s.parseProduct(req)
	if err != nil {
		return nil, err
	}

	if req.Thumbnail == nil {
		return nil, domain.ErrNoFileProvided
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	asset, err := s.assets.Store(ctx, req.Thumbnail.Data, req.Thumbnail.Filename)
	if err != nil {
		return nil, s.logFailure("store thumbnail", err)
	}
	product.Thumbnail = asset.Name

	refs := domain.AttributeRefs{SizeIDs: req.SizeIDs, ColorIDs: req.ColorIDs}
	if err := s.productRepo.Create(ctx, product, refs); err != nil {
		s.logger.Warn("Thumbnail left unreferenced", zap.String("asset", asset.Name))
		return nil, s.logFailure("create product", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("category_id", product.CategoryID),
		zap.String("thumbnail", product.Thumbnail),
	)
	return product, nil
}

func (s *catalogService) parseProduct(req AddProductRequest) (*domain.Product, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	regularPrice, err := parsePrice("regular_price", req.RegularPrice)
	if err != nil {
		return nil, err
	}

	salePrice := decimal.Zero
	if strings.TrimSpace(req.SalePrice) != "" {
		salePrice, err = parsePrice("sale_price", req.SalePrice)
		if err != nil {
			return nil, err
		}
	}

	// quantity is an INTEGER column.
	quantity, err := strconv.ParseInt(strings.TrimSpace(req.Quantity), 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, domain.Validation("quantity must not exceed %d", math.MaxInt32).
				WithDetails(map[string]interface{}{"field": "quantity", "value": req.Quantity})
		}
		return nil, domain.Validation("quantity must be an integer").
			WithDetails(map[string]interface{}{"field": "quantity", "value": req.Quantity})
	}
	if quantity < 0 {
		return nil, domain.Validation("quantity must not be negative").
			WithDetails(map[string]interface{}{"field": "quantity", "value": req.Quantity})
	}

	return &domain.Product{
		Name:         req.Name,
		RegularPrice: regularPrice,
		SalePrice:    salePrice,
		Quantity:     int(quantity),
		CategoryID:   req.CategoryID,
		Description:  req.Description,
	}, nil
}

func parsePrice(field, raw string) (decimal.Decimal, error) {
	details := map[string]interface{}{"field": field, "value": raw}

	raw = strings.TrimSpace(raw)
	if len(raw) > maxPriceLength {
		return decimal.Zero, domain.Validation("%s must be a decimal number", field).WithDetails(details)
	}

	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.Validation("%s must be a decimal number", field).WithDetails(details)
	}
	// Rounding and comparison rescale by a power of ten of the exponent's
	// size, so huge exponents are refused before any arithmetic.
	if exp := price.Exponent(); exp < -maxPriceScale || exp > maxPriceScale {
		return decimal.Zero, domain.Validation("%s must be a plain decimal number", field).WithDetails(details)
	}
	if price.IsNegative() {
		return decimal.Zero, domain.Validation("%s must not be negative", field).WithDetails(details)
	}
	if !price.Equal(price.Round(2)) {
		return decimal.Zero, domain.Validation("%s must have at most two decimal places", field).WithDetails(details)
	}
	if price.GreaterThan(maxPrice) {
		return decimal.Zero, domain.Validation("%s must not exceed %s", field, maxPrice).WithDetails(details)
	}

	return price, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.productRepo.FindByID(ctx, id)
}

// DeleteProduct removes a product; its thumbnail stays in the asset store
func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return s.logFailure("delete product", err)
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*domain.ProductWithCategory, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	return s.productRepo.ListWithCategory(ctx)
}

// ProductFormOptions returns the sizes, colors and categories a product can
// be created with
func (s *catalogService) ProductFormOptions(ctx context.Context) (*FormOptions, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	size := domain.AttributeTypeSize
	sizes, err := s.attributeRepo.List(ctx, &size)
	if err != nil {
		return nil, err
	}

	color := domain.AttributeTypeColor
	colors, err := s.attributeRepo.List(ctx, &color)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	return &FormOptions{Sizes: sizes, Colors: colors, Categories: categories}, nil
}

// check runs struct validation and converts failures into a validation error
// listing the offending fields.
func (s *catalogService) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Validation("invalid request").WithCause(err)
	}

	fields := make(map[string]interface{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	return domain.Validation("invalid %s", fieldErrs[0].Field()).WithDetails(map[string]interface{}{"fields": fields})
}

// logFailure logs err at a level matching its kind and returns it unchanged.
func (s *catalogService) logFailure(op string, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.KindStorage {
		s.logger.Error("Catalog operation failed", zap.String("operation", op), zap.Error(err))
	} else {
		s.logger.Warn("Catalog operation rejected",
			zap.String("operation", op),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	return err
}
