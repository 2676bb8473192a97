package catalog

import (
	"context"
	"fmt"

	"github.com/avelinelabs/boutiq/internal/cart"
	"github.com/avelinelabs/boutiq/internal/gateway"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

type backendAPI interface {
	ListProducts(ctx context.Context) ([]gateway.Product, error)
	GetProduct(ctx context.Context, id string) (*gateway.Product, error)
}

// Service exposes the product catalog to the UI layer.
type Service struct {
	api  backendAPI
	logg *logger.Logger
}

// NewService builds the catalog service.
func NewService(api backendAPI, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{api: api, logg: logg}, nil
}

// List fetches the full catalog.
func (s *Service) List(ctx context.Context) ([]gateway.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Get fetches one product by id.
func (s *Service) Get(ctx context.Context, id string) (*gateway.Product, error) {
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.api.GetProduct(ctx, id)
}

// CartInfo converts a catalog product into the snapshot the cart stores.
func CartInfo(product gateway.Product) cart.ProductInfo {
	return cart.ProductInfo{
		ID:       product.ID.String(),
		Name:     product.Name,
		Price:    product.Price,
		ImageURL: product.ImageURL,
	}
}
