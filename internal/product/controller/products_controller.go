package controller

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"stockroom/internal/auth/token"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/httpx"
)

const maxSearchIDs = 100

type CatalogUseCase interface {
	ListProducts(ctx context.Context) ([]dto.ProductDTO, error)
	GetProduct(ctx context.Context, id int) (*dto.ProductDTO, error)
	SearchProducts(ctx context.Context, req dto.SearchProductsRequest) ([]dto.ProductDTO, []int, error)
	CreateProduct(ctx context.Context, req dto.ProductRequest, actor *string) (int, error)
	UpdateProduct(ctx context.Context, id int, req dto.ProductRequest, actor *string) error
	DeleteProduct(ctx context.Context, id int) error
}

type Controller struct {
	useCase       CatalogUseCase
	requireWriter func(http.Handler) http.Handler
	logger        *zap.Logger
}

// NewController wires the catalog routes. requireWriter guards the routes
// that change the catalog; search is a read despite being a POST.
func NewController(useCase CatalogUseCase, requireWriter func(http.Handler) http.Handler, logger *zap.Logger) *Controller {
	return &Controller{
		useCase:       useCase,
		requireWriter: requireWriter,
		logger:        logger,
	}
}

func (c *Controller) Routes(r chi.Router) {
	r.Get("/products", c.HandleListProducts)
	r.Post("/products/search", c.HandleSearchProducts)
	r.Get("/products/{id}", c.HandleGetProduct)

	r.Group(func(w chi.Router) {
		w.Use(c.requireWriter)
		w.Post("/products", c.HandleCreateProduct)
		w.Put("/products/{id}", c.HandleUpdateProduct)
		w.Delete("/products/{id}", c.HandleDeleteProduct)
	})
}

func (c *Controller) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	products, err := c.useCase.ListProducts(r.Context())
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.ProductsResponse{
		Success:  true,
		TraceID:  traceID,
		Products: products,
	}, logger)
}

func (c *Controller) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	product, err := c.useCase.GetProduct(r.Context(), int(id))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.ProductResponse{
		Success: true,
		TraceID: traceID,
		Product: *product,
	}, logger)
}

func (c *Controller) HandleSearchProducts(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.SearchProductsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := validateSearchRequest(req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	products, notFound, err := c.useCase.SearchProducts(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.SearchProductsResponse{
		Success:  true,
		TraceID:  traceID,
		Products: products,
		NotFound: notFound,
	}, logger)
}

func (c *Controller) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	var req dto.ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := validateProductRequest(req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	id, err := c.useCase.CreateProduct(r.Context(), req, token.ActorOr(r.Context(), req.CreatedBy))
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, dto.ProductCreatedResponse{
		Success:   true,
		Message:   "Product created successfully",
		TraceID:   traceID,
		ProductID: id,
	}, logger)
}

func (c *Controller) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	var req dto.ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := validateProductRequest(req); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.useCase.UpdateProduct(r.Context(), int(id), req, token.ActorOr(r.Context(), req.CreatedBy)); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Product updated successfully",
		TraceID: traceID,
	}, logger)
}

func (c *Controller) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	traceID, logger := httpx.Trace(r, c.logger)

	id, err := httpx.PathInt(r, "id")
	if err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	if err := c.useCase.DeleteProduct(r.Context(), int(id)); err != nil {
		httpx.WriteError(w, traceID, err, logger)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Success: true,
		Message: "Product deleted successfully",
		TraceID: traceID,
	}, logger)
}

func validateProductRequest(req dto.ProductRequest) error {
	var details []apperrors.ValidationDetail

	required := []struct{ field, value string }{
		{"name", req.Name},
		{"code", req.Code},
		{"type", req.Type},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   f.field,
				Message: f.field + " is required",
			})
		}
	}

	if req.Price == nil {
		details = append(details, apperrors.ValidationDetail{Field: "price", Message: "price is required"})
	} else if req.Price.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "price", Message: "price must be zero or greater"})
	} else if !domain.ValidPrice(*req.Price) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "price",
			Message: fmt.Sprintf("price must be at most %s with no more than %d decimal places", domain.MaxPrice.StringFixed(domain.PriceDecimals), domain.PriceDecimals),
		})
	}

	if req.Quantity != nil && *req.Quantity < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "quantity", Message: "quantity must be zero or greater"})
	} else if req.Quantity != nil && *req.Quantity > domain.MaxQuantity {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be at most %d", domain.MaxQuantity),
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("All fields are required", details...)
	}
	return nil
}

func validateSearchRequest(req dto.SearchProductsRequest) error {
	if len(req.ProductIDs) == 0 {
		return apperrors.NewValidationError("productIds is required", apperrors.ValidationDetail{
			Field:   "productIds",
			Message: "productIds must not be empty",
		})
	}

	if len(req.ProductIDs) > maxSearchIDs {
		msg := "productIds exceeds maximum of 100"
		return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   "productIds",
			Message: msg,
		})
	}

	for _, id := range req.ProductIDs {
		if id <= 0 {
			msg := "each productId must be a positive integer"
			return apperrors.NewValidationError(msg, apperrors.ValidationDetail{
				Field:   "productIds",
				Message: msg,
			})
		}
	}

	return nil
}
