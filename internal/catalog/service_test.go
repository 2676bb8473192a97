package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelinelabs/boutiq/internal/gateway"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

type fakeBackend struct {
	products []gateway.Product
	err      error
}

func (f *fakeBackend) ListProducts(ctx context.Context) ([]gateway.Product, error) {
	return f.products, f.err
}

func (f *fakeBackend) GetProduct(ctx context.Context, id string) (*gateway.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, product := range f.products {
		if product.ID.String() == id {
			found := product
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestListPassesThrough(t *testing.T) {
	backend := &fakeBackend{products: []gateway.Product{
		{ID: "p-1", Name: "Mug", Price: decimal.NewFromInt(18)},
	}}
	svc, err := NewService(backend, testLogger())
	require.NoError(t, err)

	products, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)
}

func TestGetRequiresID(t *testing.T) {
	svc, err := NewService(&fakeBackend{}, testLogger())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCartInfoSnapshotsDisplayFields(t *testing.T) {
	product := gateway.Product{
		ID:       "p-1",
		Name:     "Mug",
		Price:    decimal.NewFromFloat(18.00),
		ImageURL: "https://cdn.example.com/mug.jpg",
	}

	info := CartInfo(product)
	assert.Equal(t, "p-1", info.ID)
	assert.Equal(t, "Mug", info.Name)
	assert.True(t, info.Price.Equal(product.Price))
	assert.Equal(t, product.ImageURL, info.ImageURL)
}
