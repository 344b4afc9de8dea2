package repository

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// Create the schema the repositories run against.
	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS brands (
			id UUID PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sku VARCHAR(100) NOT NULL DEFAULT '',
			price DECIMAL(14, 2) NOT NULL CHECK (price >= 0),
			compare_price DECIMAL(14, 2) CHECK (compare_price >= 0),
			category_id UUID NOT NULL REFERENCES categories(id),
			brand_id UUID NOT NULL REFERENCES brands(id),
			image_url VARCHAR(500) NOT NULL DEFAULT '',
			stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			shipping_address TEXT NOT NULL,
			delivery_option VARCHAR(20) NOT NULL,
			delivery_fee DECIMAL(14, 2) NOT NULL DEFAULT 0,
			payment_method VARCHAR(20) NOT NULL,
			payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
			subtotal DECIMAL(14, 2) NOT NULL,
			discount DECIMAL(14, 2) NOT NULL DEFAULT 0,
			total DECIMAL(14, 2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id),
			product_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			sku VARCHAR(100) NOT NULL DEFAULT '',
			image_url VARCHAR(500) NOT NULL DEFAULT '',
			unit_price DECIMAL(14, 2) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0)
		);

		CREATE TABLE IF NOT EXISTS order_status_history (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id),
			status VARCHAR(20) NOT NULL,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS exchange_rates (
			currency VARCHAR(10) PRIMARY KEY,
			rate DECIMAL(20, 10) NOT NULL CHECK (rate > 0),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

// newTestProduct inserts a product with fresh category and brand rows and
// returns it. Every call gets its own references, so tests do not interfere.
func newTestProduct(t *testing.T, name string, price int64, stock int) *domain.Product {
	t.Helper()
	ctx := context.Background()

	category := &domain.Category{ID: uuid.New(), Name: "cat-" + uuid.NewString(), CreatedAt: time.Now()}
	require.NoError(t, NewCategoryRepository(testDB).Create(ctx, category))

	brand := &domain.Brand{ID: uuid.New(), Name: "brand-" + uuid.NewString(), CreatedAt: time.Now()}
	require.NoError(t, NewBrandRepository(testDB).Create(ctx, brand))

	product := &domain.Product{
		ID:         uuid.New(),
		Name:       name,
		SKU:        "SKU-" + uuid.NewString()[:8],
		Price:      decimal.NewFromInt(price),
		CategoryID: category.ID,
		BrandID:    brand.ID,
		Stock:      stock,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, NewProductRepository(testDB).Create(ctx, product))
	return product
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := newTestProduct(t, "Galaxy S25", 12000000, 30)

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)

	assert.Equal(t, product.ID, found.ID)
	assert.Equal(t, "Galaxy S25", found.Name)
	assert.True(t, found.Price.Equal(decimal.NewFromInt(12000000)))
	assert.Nil(t, found.ComparePrice)
	assert.Equal(t, 30, found.Stock)
}

func TestProductRepository_FindByID_NotFound(t *testing.T) {
	repo := NewProductRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := newTestProduct(t, "Charger", 80000, 5)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 3))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)

	// More than remains: rejected, stock untouched.
	err = repo.DecrementStock(ctx, product.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	found, err = repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)

	err = repo.DecrementStock(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_DecrementStock_Concurrent(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	const stock = 12
	const buyers = 20
	product := newTestProduct(t, "Konsol", 4500000, stock)

	var wg sync.WaitGroup
	results := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.DecrementStock(ctx, product.ID, 1)
		}()
	}
	wg.Wait()
	close(results)

	succeeded, outOfStock := 0, 0
	for err := range results {
		switch err {
		case nil:
			succeeded++
		case ErrInsufficientStock:
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, buyers-stock, outOfStock)

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Stock, "stock never goes negative under contention")
}

func TestProductRepository_IncrementAndRestock(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := newTestProduct(t, "Monitor", 2000000, 4)

	require.NoError(t, repo.IncrementStock(ctx, product.ID, 3))
	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, found.Stock)

	require.NoError(t, repo.Restock(ctx, product.ID, 100))
	found, err = repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, found.Stock)

	assert.ErrorIs(t, repo.IncrementStock(ctx, uuid.New(), 1), ErrProductNotFound)
	assert.ErrorIs(t, repo.Restock(ctx, uuid.New(), 1), ErrProductNotFound)
}

func TestProductRepository_SetPrice(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := newTestProduct(t, "Laptop", 15000000, 3)

	compare := decimal.NewFromInt(15000000)
	require.NoError(t, repo.SetPrice(ctx, product.ID, decimal.NewFromInt(12000000), &compare))

	found, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(decimal.NewFromInt(12000000)))
	require.NotNil(t, found.ComparePrice)
	assert.True(t, found.ComparePrice.Equal(compare))

	// Clearing the compare price ends the discount.
	require.NoError(t, repo.SetPrice(ctx, product.ID, compare, nil))

	found, err = repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, found.Price.Equal(compare))
	assert.Nil(t, found.ComparePrice)
}

func TestProductRepository_Update_PartialFields(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := newTestProduct(t, "Tablet", 3000000, 15)

	newName := "Tablet Pro"
	newPrice := decimal.NewFromInt(3500000)
	updated, err := repo.Update(ctx, product.ID, &domain.ProductUpdate{
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, "Tablet Pro", updated.Name)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, product.SKU, updated.SKU)
	assert.Equal(t, 15, updated.Stock)

	_, err = repo.Update(ctx, uuid.New(), &domain.ProductUpdate{Name: &newName})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepository_ListByTarget(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	a := newTestProduct(t, "Fridge", 6000000, 4)
	b := newTestProduct(t, "Oven", 4000000, 4)

	byProduct, err := repo.ListByTarget(ctx, domain.DiscountTarget{
		Scope:    domain.DiscountScopeProduct,
		TargetID: a.ID,
	})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, a.ID, byProduct[0].ID)

	byCategory, err := repo.ListByTarget(ctx, domain.DiscountTarget{
		Scope:    domain.DiscountScopeCategory,
		TargetID: b.CategoryID,
	})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, b.ID, byCategory[0].ID)

	byBrand, err := repo.ListByTarget(ctx, domain.DiscountTarget{
		Scope:    domain.DiscountScopeBrand,
		TargetID: a.BrandID,
	})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, a.ID, byBrand[0].ID)

	_, err = repo.ListByTarget(ctx, domain.DiscountTarget{Scope: domain.DiscountScope("bogus")})
	require.Error(t, err)
}

func TestProductRepository_Delete(t *testing.T) {
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := newTestProduct(t, "Webcam", 500000, 6)

	require.NoError(t, repo.Delete(ctx, product.ID))

	_, err := repo.FindByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, product.ID), ErrProductNotFound)
}
