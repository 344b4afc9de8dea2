package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/money"
	"github.com/yakubov45/TechStore-sub000/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService covers admin product management and customer-facing catalog
// reads. Stock edits go through Restock only; the generic update path cannot
// reach the stock column.
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, update *domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error)
	Restock(ctx context.Context, id uuid.UUID, stock int) (*domain.Product, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	logger       *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		logger:       logger,
	}
}

// CreateProduct validates references and inserts the product.
func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: product price is negative", money.ErrInvalidAmount)
	}
	if product.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}

	if _, err := s.categoryRepo.FindByID(ctx, product.CategoryID); err != nil {
		return err
	}
	if _, err := s.brandRepo.FindByID(ctx, product.BrandID); err != nil {
		return err
	}

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, product); err != nil {
		return err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	return nil
}

// UpdateProduct applies an allow-listed partial update.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, update *domain.ProductUpdate) (*domain.Product, error) {
	if update.Price != nil && update.Price.IsNegative() {
		return nil, fmt.Errorf("%w: product price is negative", money.ErrInvalidAmount)
	}
	if update.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
	}
	if update.BrandID != nil {
		if _, err := s.brandRepo.FindByID(ctx, *update.BrandID); err != nil {
			return nil, err
		}
	}
	return s.productRepo.Update(ctx, id, update)
}

// DeleteProduct removes a product from the catalog.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetProduct retrieves a single product.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// ListProducts returns a paginated catalog page.
func (s *catalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.List(ctx, categoryID, page, pageSize, sortBy, sortOrder)
}

// SearchProducts searches by name or description.
func (s *catalogService) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.Search(ctx, query, page, pageSize)
}

// Restock sets a product's stock to an absolute value (admin restock edit).
func (s *catalogService) Restock(ctx context.Context, id uuid.UUID, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("stock must not be negative")
	}
	if err := s.productRepo.Restock(ctx, id, stock); err != nil {
		return nil, err
	}

	s.logger.Info("Product restocked",
		zap.String("product_id", id.String()),
		zap.Int("stock", stock),
	)
	return s.productRepo.FindByID(ctx, id)
}
