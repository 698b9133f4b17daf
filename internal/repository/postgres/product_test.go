package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/repository"
	"github.com/oakmart/storefront/pkg/database"
	apperrors "github.com/oakmart/storefront/pkg/errors"
)

// --- Test Helpers ---

func newProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewProductRepository(mock)
	return repo, mock
}

var productCols = []string{
	"id", "name", "slug", "sku", "description", "price_cents", "image_url",
	"status", "track_inventory", "stock_quantity", "created_at", "updated_at",
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:             "prod-001",
		Name:           "Walnut Desk Organizer",
		Slug:           "walnut-desk-organizer",
		SKU:            "WDO-001",
		Description:    "A desk organizer made of walnut.",
		PriceCents:     4500,
		ImageURL:       "https://img.example.com/wdo.jpg",
		Status:         domain.ProductStatusPublished,
		TrackInventory: true,
		StockQuantity:  12,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func productRow(p *domain.Product) *pgxmock.Rows {
	return pgxmock.NewRows(productCols).AddRow(
		p.ID, p.Name, p.Slug, p.SKU, p.Description, p.PriceCents, p.ImageURL,
		p.Status, p.TrackInventory, p.StockQuantity, p.CreatedAt, p.UpdatedAt,
	)
}

// --- Create Tests ---

func TestProductRepository_Create_Success(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Slug, p.SKU, p.Description, p.PriceCents,
			p.ImageURL, p.Status, p.TrackInventory, p.StockQuantity,
			p.CreatedAt, p.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), p)
	require.NoError(t, err)
}

func TestProductRepository_Create_DuplicateSlug(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(
			p.ID, p.Name, p.Slug, p.SKU, p.Description, p.PriceCents,
			p.ImageURL, p.Status, p.TrackInventory, p.StockQuantity,
			p.CreatedAt, p.UpdatedAt,
		).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "products_slug_key"`))

	err := repo.Create(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

// --- GetByID / GetBySlug Tests ---

func TestProductRepository_GetByID_Success(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs(p.ID).
		WillReturnRows(productRow(p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Slug, got.Slug)
	assert.Equal(t, int64(4500), got.PriceCents)
	assert.True(t, got.TrackInventory)
	assert.Equal(t, 12, got.StockQuantity)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(productCols))

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductRepository_GetBySlug_Success(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE slug").
		WithArgs(p.Slug).
		WillReturnRows(productRow(p))

	got, err := repo.GetBySlug(context.Background(), p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

// --- List Tests ---

func TestProductRepository_List_WithStatusFilter(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()
	status := domain.ProductStatusPublished

	cols := append(append([]string{}, productCols...), "total_count")
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(status, 20, 0).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			p.ID, p.Name, p.Slug, p.SKU, p.Description, p.PriceCents, p.ImageURL,
			p.Status, p.TrackInventory, p.StockQuantity, p.CreatedAt, p.UpdatedAt, 1,
		))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{
		Status:  &status,
		Page:    1,
		PerPage: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, p.ID, products[0].ID)
}

func TestProductRepository_List_Empty(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	cols := append(append([]string{}, productCols...), "total_count")
	mock.ExpectQuery("SELECT .+ FROM products").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(cols))

	products, total, err := repo.List(context.Background(), repository.ProductFilter{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, products)
}

// --- Update Tests ---

func TestProductRepository_Update_Success(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.Name, p.Slug, p.SKU, p.Description, p.PriceCents, p.ImageURL,
			p.Status, p.TrackInventory, p.StockQuantity, p.UpdatedAt, p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), p)
	require.NoError(t, err)
}

func TestProductRepository_Update_NotFound(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(
			p.Name, p.Slug, p.SKU, p.Description, p.PriceCents, p.ImageURL,
			p.Status, p.TrackInventory, p.StockQuantity, p.UpdatedAt, p.ID,
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- AdjustStock Tests ---

func TestProductRepository_AdjustStock_Decrement(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE products").
		WithArgs(-3, pgxmock.AnyArg(), "prod-001").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.AdjustStock(context.Background(), "prod-001", -3)
	require.NoError(t, err)
}

func TestProductRepository_AdjustStock_UntrackedOrMissing(t *testing.T) {
	repo, mock := newProductRepo(t)
	defer mock.ExpectationsWereMet()

	mock.ExpectExec("UPDATE products").
		WithArgs(5, pgxmock.AnyArg(), "prod-untracked").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.AdjustStock(context.Background(), "prod-untracked", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
