package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"
	"github.com/yakubov45/TechStore-sub000/internal/middleware"
	"github.com/yakubov45/TechStore-sub000/internal/money"
	"github.com/yakubov45/TechStore-sub000/internal/repository"
	"github.com/yakubov45/TechStore-sub000/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	SKU         string `json:"sku" validate:"required"`
	Price       string `json:"price" validate:"required"`
	CategoryID  string `json:"category_id" validate:"required,uuid"`
	BrandID     string `json:"brand_id" validate:"required,uuid"`
	ImageURL    string `json:"image_url"`
	Stock       int    `json:"stock" validate:"gte=0"`
}

// RestockRequest represents an admin stock edit
type RestockRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// CreateCategoryRequest represents the category creation payload
type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateBrandRequest represents the brand creation payload
type CreateBrandRequest struct {
	Name string `json:"name" validate:"required"`
}

// ProductView is a product with display-currency prices attached.
type ProductView struct {
	*domain.Product
	DisplayCurrency     string  `json:"display_currency,omitempty"`
	DisplayPrice        *string `json:"display_price,omitempty"`
	DisplayComparePrice *string `json:"display_compare_price,omitempty"`
}

// ProductListResponse wraps a paginated product listing
type ProductListResponse struct {
	Products []ProductView `json:"products"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// CatalogHandler handles HTTP requests for catalog operations
type CatalogHandler struct {
	catalogService  service.CatalogService
	currencyService service.CurrencyService
	categoryRepo    repository.CategoryRepository
	brandRepo       repository.BrandRepository
	logger          *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(
	catalogService service.CatalogService,
	currencyService service.CurrencyService,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	logger *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		catalogService:  catalogService,
		currencyService: currencyService,
		categoryRepo:    categoryRepo,
		brandRepo:       brandRepo,
		logger:          logger,
	}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public reads
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/{id}", h.GetProduct)

		// Admin writes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.CreateProduct)
			r.Patch("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Put("/{id}/stock", h.Restock)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.CreateCategory)
		})
	})

	r.Route("/api/brands", func(r chi.Router) {
		r.Get("/", h.ListBrands)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.CreateBrand)
		})
	})
}

// displayCurrency returns the requested display currency, defaulting to the
// canonical one.
func displayCurrency(r *http.Request) money.Currency {
	if v := r.URL.Query().Get("currency"); v != "" {
		return money.Currency(v)
	}
	return money.UZS
}

// toView attaches display-currency amounts to a product. Conversion problems
// degrade to canonical-only output rather than failing the read.
func (h *CatalogHandler) toView(r *http.Request, product *domain.Product) ProductView {
	view := ProductView{Product: product}

	currency := displayCurrency(r)
	if money.Canonical(currency) || !money.Supported(currency) {
		return view
	}

	price, err := h.currencyService.Convert(r.Context(), product.Price, currency)
	if err != nil {
		h.logger.Warn("Display conversion failed",
			zap.String("currency", string(currency)),
			zap.Error(err),
		)
		return view
	}

	formatted := money.Format(price, currency)
	view.DisplayCurrency = string(currency)
	view.DisplayPrice = &formatted

	if product.ComparePrice != nil {
		cp, err := h.currencyService.Convert(r.Context(), *product.ComparePrice, currency)
		if err == nil {
			formattedCP := money.Format(cp, currency)
			view.DisplayComparePrice = &formattedCP
		}
	}

	return view
}

// GetProduct handles fetching a single product
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), id)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, h.toView(r, product))
}

// ListProducts handles the catalog listing
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	var categoryID *uuid.UUID
	if v := r.URL.Query().Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
			return
		}
		categoryID = &id
	}

	sortBy := r.URL.Query().Get("sort_by")
	sortOrder := repository.SortOrder(r.URL.Query().Get("sort_order"))

	products, total, err := h.catalogService.ListProducts(r.Context(), categoryID, page, pageSize, sortBy, sortOrder)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	h.respondProductList(w, r, products, total, page, pageSize)
}

// SearchProducts handles catalog search
func (h *CatalogHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	products, total, err := h.catalogService.SearchProducts(r.Context(), r.URL.Query().Get("q"), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to search products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
		return
	}

	h.respondProductList(w, r, products, total, page, pageSize)
}

func (h *CatalogHandler) respondProductList(w http.ResponseWriter, r *http.Request, products []*domain.Product, total, page, pageSize int) {
	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, h.toView(r, product))
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: views,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// CreateProduct handles admin product creation
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid price")
		return
	}

	categoryID, _ := uuid.Parse(req.CategoryID)
	brandID, _ := uuid.Parse(req.BrandID)

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       price,
		CategoryID:  categoryID,
		BrandID:     brandID,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}

	if err := h.catalogService.CreateProduct(r.Context(), product); err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles an admin partial edit
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var update domain.ProductUpdate
	if err := middleware.DecodeAndValidate(r, &update); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), id, &update)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct handles admin product deletion
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), id); err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// Restock handles an admin stock edit
func (h *CatalogHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req RestockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.catalogService.Restock(r.Context(), id, req.Stock)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListCategories handles listing all categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryRepo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// CreateCategory handles admin category creation
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := &domain.Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}

	if err := h.categoryRepo.Create(r.Context(), category); err != nil {
		if errors.Is(err, repository.ErrCategoryAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
			return
		}
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// ListBrands handles listing all brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.brandRepo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list brands", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

// CreateBrand handles admin brand creation
func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	var req CreateBrandRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	brand := &domain.Brand{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: time.Now(),
	}

	if err := h.brandRepo.Create(r.Context(), brand); err != nil {
		if errors.Is(err, repository.ErrBrandAlreadyExists) {
			middleware.RespondWithError(w, http.StatusConflict, "brand with this name already exists")
			return
		}
		h.logger.Error("Failed to create brand", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create brand")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

// respondCatalogError maps catalog errors to HTTP responses.
func (h *CatalogHandler) respondCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrBrandNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "brand not found")
	case errors.Is(err, money.ErrInvalidAmount):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid monetary amount")
	default:
		h.logger.Error("Catalog operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
