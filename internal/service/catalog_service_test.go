package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"testing"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/id"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/storage"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock repositories for testing. They share one catalog so that product
// writes can check category and attribute references.
type mockCatalog struct {
	categories map[int64]*domain.Category
	attributes map[int64]*domain.Attribute
	products   map[int64]*domain.Product
	nextID     int64
	failWrites error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		categories: make(map[int64]*domain.Category),
		attributes: make(map[int64]*domain.Attribute),
		products:   make(map[int64]*domain.Product),
	}
}

func (m *mockCatalog) id() int64 {
	m.nextID++
	return m.nextID
}

type mockCategoryRepository struct{ *mockCatalog }

func (m mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if m.failWrites != nil {
		return m.failWrites
	}
	for _, c := range m.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	category.ID = m.id()
	stored := *category
	m.categories[category.ID] = &stored
	return nil
}

func (m mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	existing, ok := m.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	existing.Name = category.Name
	return nil
}

func (m mockCategoryRepository) Delete(ctx context.Context, id int64) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return category, nil
}

func (m mockCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (m mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID > categories[j].ID })
	return categories, nil
}

type mockAttributeRepository struct{ *mockCatalog }

func (m mockAttributeRepository) Create(ctx context.Context, attribute *domain.Attribute) error {
	if m.failWrites != nil {
		return m.failWrites
	}
	attribute.ID = m.id()
	stored := *attribute
	m.attributes[attribute.ID] = &stored
	return nil
}

func (m mockAttributeRepository) Update(ctx context.Context, attribute *domain.Attribute) error {
	existing, ok := m.attributes[attribute.ID]
	if !ok {
		return repository.ErrAttributeNotFound
	}
	existing.Value = attribute.Value
	existing.Type = attribute.Type
	return nil
}

func (m mockAttributeRepository) Delete(ctx context.Context, id int64) (*domain.Attribute, error) {
	attribute, ok := m.attributes[id]
	if !ok {
		return nil, repository.ErrAttributeNotFound
	}
	delete(m.attributes, id)
	return attribute, nil
}

func (m mockAttributeRepository) FindByID(ctx context.Context, id int64) (*domain.Attribute, error) {
	attribute, ok := m.attributes[id]
	if !ok {
		return nil, repository.ErrAttributeNotFound
	}
	return attribute, nil
}

func (m mockAttributeRepository) List(ctx context.Context, attrType *domain.AttributeType) ([]*domain.Attribute, error) {
	attributes := []*domain.Attribute{}
	for _, a := range m.attributes {
		if attrType == nil || a.Type == *attrType {
			attributes = append(attributes, a)
		}
	}
	sort.Slice(attributes, func(i, j int) bool { return attributes[i].ID > attributes[j].ID })
	return attributes, nil
}

type mockProductRepository struct{ *mockCatalog }

func (m mockProductRepository) Create(ctx context.Context, product *domain.Product, refs domain.AttributeRefs) error {
	if m.failWrites != nil {
		return m.failWrites
	}
	if _, ok := m.categories[product.CategoryID]; !ok {
		return domain.Validation("category %d does not exist", product.CategoryID)
	}

	product.Sizes = []domain.Attribute{}
	product.Colors = []domain.Attribute{}
	for _, sizeID := range refs.SizeIDs {
		a, ok := m.attributes[sizeID]
		if !ok || a.Type != domain.AttributeTypeSize {
			return domain.Validation("attribute %d is not an existing size", sizeID)
		}
		product.Sizes = append(product.Sizes, *a)
	}
	for _, colorID := range refs.ColorIDs {
		a, ok := m.attributes[colorID]
		if !ok || a.Type != domain.AttributeTypeColor {
			return domain.Validation("attribute %d is not an existing color", colorID)
		}
		product.Colors = append(product.Colors, *a)
	}

	product.ID = m.id()
	m.products[product.ID] = product
	return nil
}

func (m mockProductRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return product, nil
}

func (m mockProductRepository) ListWithCategory(ctx context.Context) ([]*domain.ProductWithCategory, error) {
	products := []*domain.ProductWithCategory{}
	for _, p := range m.products {
		category, ok := m.categories[p.CategoryID]
		if !ok {
			continue
		}
		products = append(products, &domain.ProductWithCategory{Product: *p, CategoryName: category.Name})
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID > products[j].ID })
	return products, nil
}

type mockUniquenessGuard struct{ *mockCatalog }

func (m mockUniquenessGuard) ExistsWithValue(ctx context.Context, kind repository.EntityKind, field, value string, scope ...repository.Filter) (bool, error) {
	switch kind {
	case repository.EntityCategory:
		for _, c := range m.categories {
			if c.Name == value {
				return true, nil
			}
		}
	case repository.EntityAttribute:
		for _, a := range m.attributes {
			if a.Value != value {
				continue
			}
			matches := true
			for _, f := range scope {
				if f.Field == "type" && string(a.Type) != f.Value {
					matches = false
				}
			}
			if matches {
				return true, nil
			}
		}
	}
	return false, nil
}

type testEnv struct {
	catalog *mockCatalog
	fs      afero.Fs
	store   *storage.Store
	service CatalogService
}

func newTestEnv(t *testing.T, opts ...storage.Option) *testEnv {
	t.Helper()
	catalog := newMockCatalog()
	fs := afero.NewMemMapFs()
	store, err := storage.NewStore(fs, "uploads", opts...)
	require.NoError(t, err)

	svc := NewCatalogService(
		mockCategoryRepository{catalog},
		mockAttributeRepository{catalog},
		mockProductRepository{catalog},
		mockUniquenessGuard{catalog},
		store,
		0,
		nil,
	)

	return &testEnv{catalog: catalog, fs: fs, store: store, service: svc}
}

func (e *testEnv) assetCount(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(e.fs, "uploads")
	require.NoError(t, err)
	return len(entries)
}

func TestCatalogService_AddProductScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shoes, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	size, err := env.service.AddAttribute(ctx, "42", domain.AttributeTypeSize)
	require.NoError(t, err)

	product, err := env.service.AddProduct(ctx, AddProductRequest{
		Name:         "Runner",
		RegularPrice: "59.99",
		Quantity:     "10",
		CategoryID:   shoes.ID,
		SizeIDs:      []int64{size.ID},
		Thumbnail:    &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}\.jpg$`, product.Thumbnail)
	assert.True(t, env.store.Exists(product.Thumbnail))

	listed, err := env.service.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Shoes", listed[0].CategoryName)
	assert.True(t, listed[0].SalePrice.IsZero())
	assert.True(t, listed[0].RegularPrice.Equal(decimal.RequireFromString("59.99")))
	require.Len(t, listed[0].Sizes, 1)
	assert.Equal(t, "42", listed[0].Sizes[0].Value)
	assert.Empty(t, listed[0].Colors)
}

func TestCatalogService_AddProductValidation(t *testing.T) {
	base := func() AddProductRequest {
		return AddProductRequest{
			Name:         "Runner",
			RegularPrice: "59.99",
			SalePrice:    "49.99",
			Quantity:     "10",
			CategoryID:   1,
			Thumbnail:    &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
		}
	}

	tests := []struct {
		name   string
		mutate func(*AddProductRequest)
		want   error
	}{
		{"missing name", func(r *AddProductRequest) { r.Name = "" }, domain.ErrValidation},
		{"missing price", func(r *AddProductRequest) { r.RegularPrice = "" }, domain.ErrValidation},
		{"price not a number", func(r *AddProductRequest) { r.RegularPrice = "cheap" }, domain.ErrValidation},
		{"negative price", func(r *AddProductRequest) { r.RegularPrice = "-1" }, domain.ErrValidation},
		{"too many decimals", func(r *AddProductRequest) { r.SalePrice = "1.999" }, domain.ErrValidation},
		{"price too large", func(r *AddProductRequest) { r.RegularPrice = "100000000" }, domain.ErrValidation},
		{"tiny exponent price", func(r *AddProductRequest) { r.RegularPrice = "1e-50000000" }, domain.ErrValidation},
		{"huge exponent price", func(r *AddProductRequest) { r.RegularPrice = "1e999999999" }, domain.ErrValidation},
		{"huge exponent sale price", func(r *AddProductRequest) { r.SalePrice = "1e-999999999" }, domain.ErrValidation},
		{"overlong price", func(r *AddProductRequest) { r.RegularPrice = "0000000000000000000000000000000001" }, domain.ErrValidation},
		{"quantity not integer", func(r *AddProductRequest) { r.Quantity = "1.5" }, domain.ErrValidation},
		{"quantity beyond integer column", func(r *AddProductRequest) { r.Quantity = "2147483648" }, domain.ErrValidation},
		{"quantity far beyond integer column", func(r *AddProductRequest) { r.Quantity = "3000000000" }, domain.ErrValidation},
		{"negative quantity", func(r *AddProductRequest) { r.Quantity = "-3" }, domain.ErrValidation},
		{"missing category", func(r *AddProductRequest) { r.CategoryID = 0 }, domain.ErrValidation},
		{"bad attribute id", func(r *AddProductRequest) { r.SizeIDs = []int64{0} }, domain.ErrValidation},
		{"no file", func(r *AddProductRequest) { r.Thumbnail = nil }, domain.ErrNoFileProvided},
		{"empty file", func(r *AddProductRequest) { r.Thumbnail.Data = nil }, domain.ErrNoFileProvided},
		{"empty filename", func(r *AddProductRequest) { r.Thumbnail.Filename = "" }, domain.ErrNoFileProvided},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.service.AddCategory(context.Background(), "Shoes")
			require.NoError(t, err)

			req := base()
			tt.mutate(&req)

			_, err = env.service.AddProduct(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, env.catalog.products)
			assert.Equal(t, 0, env.assetCount(t))
		})
	}
}

func TestCatalogService_AddProductAcceptsColumnBoundaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)

	product, err := env.service.AddProduct(ctx, AddProductRequest{
		Name:         "Runner",
		RegularPrice: "99999999.99",
		SalePrice:    "1.5000",
		Quantity:     "2147483647",
		CategoryID:   category.ID,
		Thumbnail:    &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, product.Quantity)
	assert.True(t, product.RegularPrice.Equal(decimal.RequireFromString("99999999.99")))
	assert.True(t, product.SalePrice.Equal(decimal.RequireFromString("1.5")))
}

func TestCatalogService_AddProductKeepsOrphanAssetOnWriteFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.AddProduct(ctx, AddProductRequest{
		Name:         "Runner",
		RegularPrice: "59.99",
		Quantity:     "10",
		CategoryID:   77,
		Thumbnail:    &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Empty(t, env.catalog.products)
	assert.Equal(t, 1, env.assetCount(t))
}

func TestCatalogService_AddProductStorageFailure(t *testing.T) {
	catalog := newMockCatalog()
	store, err := storage.NewStore(afero.NewMemMapFs(), "uploads")
	require.NoError(t, err)
	svc := NewCatalogService(
		mockCategoryRepository{catalog},
		mockAttributeRepository{catalog},
		mockProductRepository{catalog},
		mockUniquenessGuard{catalog},
		readOnlyStore{store},
		0,
		nil,
	)

	category, err := svc.AddCategory(context.Background(), "Shoes")
	require.NoError(t, err)

	_, err = svc.AddProduct(context.Background(), AddProductRequest{
		Name:         "Runner",
		RegularPrice: "59.99",
		Quantity:     "10",
		CategoryID:   category.ID,
		Thumbnail:    &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorage))
	assert.Empty(t, catalog.products)
}

// readOnlyStore fails every write with a storage error.
type readOnlyStore struct {
	store *storage.Store
}

func (readOnlyStore) Store(ctx context.Context, data []byte, originalName string) (*domain.StoredAsset, error) {
	return nil, domain.Storage(errors.New("read-only file system"), "failed to store asset")
}

func (r readOnlyStore) Read(name string) ([]byte, error) { return r.store.Read(name) }

func (r readOnlyStore) Exists(name string) bool { return r.store.Exists(name) }

func TestCatalogService_SameFilenameUploadsGetDistinctAssets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)

	first, err := env.service.AddProduct(ctx, AddProductRequest{
		Name: "One", RegularPrice: "1", Quantity: "1", CategoryID: category.ID,
		Thumbnail: &Upload{Filename: "photo.png", Data: []byte("first")},
	})
	require.NoError(t, err)
	second, err := env.service.AddProduct(ctx, AddProductRequest{
		Name: "Two", RegularPrice: "1", Quantity: "1", CategoryID: category.ID,
		Thumbnail: &Upload{Filename: "photo.png", Data: []byte("second")},
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.Thumbnail, second.Thumbnail)

	data, err := env.store.Read(first.Thumbnail)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data)
	data, err = env.store.Read(second.Thumbnail)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestCatalogService_DuplicateCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)

	_, err = env.service.AddCategory(ctx, "Shoes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateValue))

	categories, err := env.service.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCatalogService_AttributeUniquenessIsPerType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.AddAttribute(ctx, "M", domain.AttributeTypeSize)
	require.NoError(t, err)

	_, err = env.service.AddAttribute(ctx, "M", domain.AttributeTypeSize)
	assert.True(t, errors.Is(err, domain.ErrDuplicateValue))

	_, err = env.service.AddAttribute(ctx, "M", domain.AttributeTypeColor)
	assert.NoError(t, err)

	_, err = env.service.AddAttribute(ctx, "Cotton", "material")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = env.service.AddAttribute(ctx, "", domain.AttributeTypeColor)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCatalogService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	attribute, err := env.service.AddAttribute(ctx, "Red", domain.AttributeTypeColor)
	require.NoError(t, err)

	renamed, err := env.service.UpdateCategory(ctx, category.ID, "Sneakers")
	require.NoError(t, err)
	assert.Equal(t, "Sneakers", renamed.Name)

	updated, err := env.service.UpdateAttribute(ctx, attribute.ID, "Crimson", domain.AttributeTypeColor)
	require.NoError(t, err)
	assert.Equal(t, "Crimson", updated.Value)

	_, err = env.service.UpdateCategory(ctx, 999, "Ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = env.service.UpdateAttribute(ctx, 999, "Ghost", domain.AttributeTypeSize)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	deletedAttr, err := env.service.DeleteAttribute(ctx, attribute.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crimson", deletedAttr.Value)

	_, err = env.service.DeleteAttribute(ctx, attribute.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	deletedCat, err := env.service.DeleteCategory(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sneakers", deletedCat.Name)

	_, err = env.service.GetCategory(ctx, category.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = env.service.GetAttribute(ctx, attribute.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCatalogService_DeleteProductKeepsThumbnail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	product, err := env.service.AddProduct(ctx, AddProductRequest{
		Name: "Runner", RegularPrice: "59.99", Quantity: "10", CategoryID: category.ID,
		Thumbnail: &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
	})
	require.NoError(t, err)

	found, err := env.service.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Runner", found.Name)

	require.NoError(t, env.service.DeleteProduct(ctx, product.ID))
	assert.True(t, env.store.Exists(product.Thumbnail))

	err = env.service.DeleteProduct(ctx, product.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCatalogService_DanglingCategoryHidesProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	product, err := env.service.AddProduct(ctx, AddProductRequest{
		Name: "Runner", RegularPrice: "59.99", Quantity: "10", CategoryID: category.ID,
		Thumbnail: &Upload{Filename: "shoe.jpg", Data: []byte("jpeg bytes")},
	})
	require.NoError(t, err)

	_, err = env.service.DeleteCategory(ctx, category.ID)
	require.NoError(t, err)

	stored, err := env.service.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, category.ID, stored.CategoryID)

	listed, err := env.service.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCatalogService_ProductFormOptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	_, err = env.service.AddAttribute(ctx, "S", domain.AttributeTypeSize)
	require.NoError(t, err)
	_, err = env.service.AddAttribute(ctx, "L", domain.AttributeTypeSize)
	require.NoError(t, err)
	_, err = env.service.AddAttribute(ctx, "Red", domain.AttributeTypeColor)
	require.NoError(t, err)

	options, err := env.service.ProductFormOptions(ctx)
	require.NoError(t, err)
	require.Len(t, options.Sizes, 2)
	assert.Equal(t, "L", options.Sizes[0].Value)
	require.Len(t, options.Colors, 1)
	assert.Equal(t, "Red", options.Colors[0].Value)
	assert.Len(t, options.Categories, 1)

	bogus := domain.AttributeType("material")
	_, err = env.service.ListAttributes(ctx, &bogus)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCatalogService_StoreUsesGenerator(t *testing.T) {
	env := newTestEnv(t, storage.WithGenerator(id.GeneratorFunc(func() string {
		return "fixedname"
	})))
	ctx := context.Background()

	category, err := env.service.AddCategory(ctx, "Shoes")
	require.NoError(t, err)
	product, err := env.service.AddProduct(ctx, AddProductRequest{
		Name: "Runner", RegularPrice: "59.99", Quantity: "10", CategoryID: category.ID,
		Thumbnail: &Upload{Filename: "../../evil.PNG", Data: []byte("png bytes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "fixedname.PNG", product.Thumbnail)
}

// Feature: catalog-admin, Property 3: Category creation is idempotent on duplicates
func TestProperty_CategoryCreatedExactlyOnce(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding a name twice stores it once and reports a duplicate", prop.ForAll(
		func(name string) bool {
			env := newTestEnv(t)
			ctx := context.Background()

			if _, err := env.service.AddCategory(ctx, name); err != nil {
				t.Logf("FAIL: first add: %v", err)
				return false
			}
			if _, err := env.service.AddCategory(ctx, name); !errors.Is(err, domain.ErrDuplicateValue) {
				t.Logf("FAIL: second add returned %v", err)
				return false
			}

			categories, err := env.service.ListCategories(ctx)
			if err != nil {
				return false
			}
			count := 0
			for _, c := range categories {
				if c.Name == name {
					count++
				}
			}
			return count == 1
		},
		gen.RegexMatch(`[A-Za-z][A-Za-z0-9 ]{0,40}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: catalog-admin, Property 4: Prices round-trip and sale price defaults to zero
func TestProperty_PriceParsing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid prices are kept exactly and sale price defaults to 0", prop.ForAll(
		func(cents int64, quantity int) bool {
			env := newTestEnv(t)
			ctx := context.Background()

			category, err := env.service.AddCategory(ctx, "Shoes")
			if err != nil {
				return false
			}

			price := decimal.New(cents, -2)
			product, err := env.service.AddProduct(ctx, AddProductRequest{
				Name:         "Runner",
				RegularPrice: price.StringFixed(2),
				Quantity:     strconv.Itoa(quantity),
				CategoryID:   category.ID,
				Thumbnail:    &Upload{Filename: "p.jpg", Data: []byte("x")},
			})
			if err != nil {
				t.Logf("FAIL: %v", err)
				return false
			}

			return product.RegularPrice.Equal(price) &&
				product.SalePrice.IsZero() &&
				product.Quantity == quantity
		},
		gen.Int64Range(0, 9999999999),
		gen.IntRange(0, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCatalogService_StorageErrorsPropagate(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.failWrites = domain.Storage(errors.New("connection reset"), "failed to create category")
	ctx := context.Background()

	_, err := env.service.AddCategory(ctx, "Shoes")
	assert.True(t, errors.Is(err, domain.ErrStorage))

	_, err = env.service.AddAttribute(ctx, "42", domain.AttributeTypeSize)
	assert.True(t, errors.Is(err, domain.ErrStorage))
}
