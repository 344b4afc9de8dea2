package service

import (
	"context"
	"testing"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/money"
	"github.com/yakubov45/TechStore-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[uuid.UUID]*domain.Category),
	}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

type mockBrandRepository struct {
	brands map[uuid.UUID]*domain.Brand
}

func newMockBrandRepository() *mockBrandRepository {
	return &mockBrandRepository{
		brands: make(map[uuid.UUID]*domain.Brand),
	}
}

func (m *mockBrandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	m.brands[brand.ID] = brand
	return nil
}

func (m *mockBrandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	brands := []*domain.Brand{}
	for _, b := range m.brands {
		brands = append(brands, b)
	}
	return brands, nil
}

func (m *mockBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	brand, ok := m.brands[id]
	if !ok {
		return nil, repository.ErrBrandNotFound
	}
	return brand, nil
}

func newCatalogFixture() (CatalogService, *mockProductRepository, *domain.Category, *domain.Brand) {
	productRepo := newMockProductRepository()
	categoryRepo := newMockCategoryRepository()
	brandRepo := newMockBrandRepository()

	category := &domain.Category{ID: uuid.New(), Name: "Phones", CreatedAt: time.Now()}
	brand := &domain.Brand{ID: uuid.New(), Name: "Samsung", CreatedAt: time.Now()}
	categoryRepo.categories[category.ID] = category
	brandRepo.brands[brand.ID] = brand

	service := NewCatalogService(productRepo, categoryRepo, brandRepo, zap.NewNop())
	return service, productRepo, category, brand
}

func TestCreateProduct_Success(t *testing.T) {
	service, productRepo, category, brand := newCatalogFixture()
	ctx := context.Background()

	product := &domain.Product{
		Name:       "Galaxy S25",
		SKU:        "GS25-256",
		Price:      decimal.NewFromInt(12000000),
		CategoryID: category.ID,
		BrandID:    brand.ID,
		Stock:      30,
	}

	require.NoError(t, service.CreateProduct(ctx, product))
	assert.NotEqual(t, uuid.Nil, product.ID)

	stored, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Galaxy S25", stored.Name)
	assert.Equal(t, 30, stored.Stock)
}

func TestCreateProduct_RejectsNegativePrice(t *testing.T) {
	service, _, category, brand := newCatalogFixture()

	err := service.CreateProduct(context.Background(), &domain.Product{
		Name:       "Broken",
		Price:      decimal.NewFromInt(-1),
		CategoryID: category.ID,
		BrandID:    brand.ID,
	})
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestCreateProduct_RejectsUnknownReferences(t *testing.T) {
	service, _, category, brand := newCatalogFixture()
	ctx := context.Background()

	err := service.CreateProduct(ctx, &domain.Product{
		Name:       "Orphan",
		Price:      decimal.NewFromInt(100000),
		CategoryID: uuid.New(),
		BrandID:    brand.ID,
	})
	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)

	err = service.CreateProduct(ctx, &domain.Product{
		Name:       "Orphan",
		Price:      decimal.NewFromInt(100000),
		CategoryID: category.ID,
		BrandID:    uuid.New(),
	})
	assert.ErrorIs(t, err, repository.ErrBrandNotFound)
}

func TestUpdateProduct_AllowListedFieldsOnly(t *testing.T) {
	service, productRepo, _, _ := newCatalogFixture()
	ctx := context.Background()

	product := seedProduct(productRepo, "Tablet", 3000000, 15)

	newName := "Tablet Pro"
	newPrice := decimal.NewFromInt(3500000)
	updated, err := service.UpdateProduct(ctx, product.ID, &domain.ProductUpdate{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, "Tablet Pro", updated.Name)
	assert.True(t, updated.Price.Equal(newPrice))
	// Stock has no field on the update struct; it cannot change here.
	assert.Equal(t, 15, updated.Stock)
}

func TestUpdateProduct_RejectsNegativePrice(t *testing.T) {
	service, productRepo, _, _ := newCatalogFixture()

	product := seedProduct(productRepo, "Tablet", 3000000, 15)
	bad := decimal.NewFromInt(-5)

	_, err := service.UpdateProduct(context.Background(), product.ID, &domain.ProductUpdate{Price: &bad})
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestRestock_SetsAbsoluteStock(t *testing.T) {
	service, productRepo, _, _ := newCatalogFixture()
	ctx := context.Background()

	product := seedProduct(productRepo, "Watch", 2500000, 2)

	updated, err := service.Restock(ctx, product.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Stock)

	_, err = service.Restock(ctx, product.ID, -1)
	require.Error(t, err)

	_, err = service.Restock(ctx, uuid.New(), 10)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}
