package promo

import (
	"context"
	"fmt"
	"strings"

	"github.com/avelinelabs/boutiq/internal/gateway"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

type backendAPI interface {
	ListPromoCodes(ctx context.Context) ([]gateway.PromoCode, error)
}

// Service exposes the published discount codes.
type Service struct {
	api  backendAPI
	logg *logger.Logger
}

// NewService builds the promo service.
func NewService(api backendAPI, logg *logger.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{api: api, logg: logg}, nil
}

// List fetches all published promo codes.
func (s *Service) List(ctx context.Context) ([]gateway.PromoCode, error) {
	return s.api.ListPromoCodes(ctx)
}

// Find looks up a code case-insensitively.
func (s *Service) Find(ctx context.Context, code string) (*gateway.PromoCode, error) {
	wanted := strings.TrimSpace(code)
	if wanted == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code is required")
	}

	codes, err := s.api.ListPromoCodes(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range codes {
		if strings.EqualFold(entry.Code, wanted) {
			found := entry
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("promo code %q not found", wanted))
}
