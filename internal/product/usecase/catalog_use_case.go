package usecase

import (
	"context"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
)

type Service interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Search(ctx context.Context, ids []int) (found []domain.Product, notFoundIDs []int, err error)
	Create(ctx context.Context, p domain.Product, actor *string) (int, error)
	Update(ctx context.Context, p domain.Product, quantity *int, actor *string) error
	Delete(ctx context.Context, id int) error
}

type CatalogUseCase struct {
	service Service
}

func NewCatalogUseCase(service Service) *CatalogUseCase {
	return &CatalogUseCase{service: service}
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context) ([]dto.ProductDTO, error) {
	products, err := uc.service.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewProductDTOs(products), nil
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, id int) (*dto.ProductDTO, error) {
	p, err := uc.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewProductDTO(*p)
	return &out, nil
}

func (uc *CatalogUseCase) SearchProducts(ctx context.Context, req dto.SearchProductsRequest) ([]dto.ProductDTO, []int, error) {
	found, notFoundIDs, err := uc.service.Search(ctx, req.ProductIDs)
	if err != nil {
		return nil, nil, err
	}

	if notFoundIDs == nil {
		notFoundIDs = []int{}
	}

	return dto.NewProductDTOs(found), notFoundIDs, nil
}

func (uc *CatalogUseCase) CreateProduct(ctx context.Context, req dto.ProductRequest, actor *string) (int, error) {
	p := toProduct(req)
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	return uc.service.Create(ctx, p, actor)
}

func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, id int, req dto.ProductRequest, actor *string) error {
	p := toProduct(req)
	p.ID = id
	return uc.service.Update(ctx, p, req.Quantity, actor)
}

func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id int) error {
	return uc.service.Delete(ctx, id)
}

func toProduct(req dto.ProductRequest) domain.Product {
	p := domain.Product{
		Code:  strings.TrimSpace(req.Code),
		Name:  strings.TrimSpace(req.Name),
		Type:  strings.TrimSpace(req.Type),
		Brand: trimmed(req.Brand),
		Image: trimmed(req.Image),
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	return p
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
