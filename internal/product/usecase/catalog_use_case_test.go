package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
)

type mockService struct {
	listFn   func(ctx context.Context) ([]domain.Product, error)
	getFn    func(ctx context.Context, id int) (*domain.Product, error)
	searchFn func(ctx context.Context, ids []int) ([]domain.Product, []int, error)
	createFn func(ctx context.Context, p domain.Product, actor *string) (int, error)
	updateFn func(ctx context.Context, p domain.Product, quantity *int, actor *string) error
	deleteFn func(ctx context.Context, id int) error
}

func (m *mockService) List(ctx context.Context) ([]domain.Product, error) {
	return m.listFn(ctx)
}

func (m *mockService) Get(ctx context.Context, id int) (*domain.Product, error) {
	return m.getFn(ctx, id)
}

func (m *mockService) Search(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
	return m.searchFn(ctx, ids)
}

func (m *mockService) Create(ctx context.Context, p domain.Product, actor *string) (int, error) {
	return m.createFn(ctx, p, actor)
}

func (m *mockService) Update(ctx context.Context, p domain.Product, quantity *int, actor *string) error {
	return m.updateFn(ctx, p, quantity, actor)
}

func (m *mockService) Delete(ctx context.Context, id int) error {
	return m.deleteFn(ctx, id)
}

func TestSearchProducts_AllFound(t *testing.T) {
	svc := &mockService{
		searchFn: func(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
			return []domain.Product{
				{ID: 1, Name: "Alpha", Price: decimal.NewFromInt(2), Quantity: 3},
			}, nil, nil
		},
	}
	uc := NewCatalogUseCase(svc)

	products, missing, err := uc.SearchProducts(context.Background(), dto.SearchProductsRequest{ProductIDs: []int{1}})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Alpha", products[0].Name)
	assert.True(t, decimal.NewFromInt(6).Equal(products[0].StockValue))
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}

func TestSearchProducts_ServiceError(t *testing.T) {
	svc := &mockService{
		searchFn: func(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
			return nil, nil, errors.New("db down")
		},
	}
	uc := NewCatalogUseCase(svc)

	_, _, err := uc.SearchProducts(context.Background(), dto.SearchProductsRequest{ProductIDs: []int{1}})

	assert.EqualError(t, err, "db down")
}

func TestCreateProduct_TrimsAndMaps(t *testing.T) {
	var got domain.Product
	svc := &mockService{
		createFn: func(ctx context.Context, p domain.Product, actor *string) (int, error) {
			got = p
			return 42, nil
		},
	}
	uc := NewCatalogUseCase(svc)
	price := decimal.RequireFromString("9.99")
	qty := 5
	blank := "   "

	id, err := uc.CreateProduct(context.Background(), dto.ProductRequest{
		Code:     " W-1 ",
		Name:     " Widget ",
		Type:     "Hardware",
		Brand:    &blank,
		Price:    &price,
		Quantity: &qty,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, "W-1", got.Code)
	assert.Equal(t, "Widget", got.Name)
	assert.Nil(t, got.Brand)
	assert.Equal(t, 5, got.Quantity)
	assert.True(t, price.Equal(got.Price))
}

func TestUpdateProduct_PassesQuantityThrough(t *testing.T) {
	var gotID int
	var gotQty *int
	svc := &mockService{
		updateFn: func(ctx context.Context, p domain.Product, quantity *int, actor *string) error {
			gotID = p.ID
			gotQty = quantity
			return nil
		},
	}
	uc := NewCatalogUseCase(svc)

	require.NoError(t, uc.UpdateProduct(context.Background(), 7, dto.ProductRequest{Code: "A"}, nil))
	assert.Equal(t, 7, gotID)
	assert.Nil(t, gotQty)
}

func TestGetProduct_Error(t *testing.T) {
	svc := &mockService{
		getFn: func(ctx context.Context, id int) (*domain.Product, error) {
			return nil, errors.New("nope")
		},
	}
	uc := NewCatalogUseCase(svc)

	p, err := uc.GetProduct(context.Background(), 1)

	assert.Nil(t, p)
	assert.Error(t, err)
}
