package service

import (
	"context"

	"github.com/parkops/parkops/internal/domain"
	"github.com/parkops/parkops/internal/store"
	"github.com/parkops/parkops/pkg/logger"
)

// RegistryService owns the spot collection. Ids are assigned by the
// store, monotonically, and never reused after a delete. Deleting an
// occupied spot is rejected so no user is left holding a dangling id.
type RegistryService struct {
	store store.Store
}

func NewRegistryService(s store.Store) *RegistryService {
	return &RegistryService{store: s}
}

func (s *RegistryService) Create(ctx context.Context, priceCents int64) (int64, error) {
	if priceCents < 0 {
		return 0, domain.ErrInvalidPrice
	}
	id, err := s.store.CreateSpot(ctx, priceCents)
	if err != nil {
		return 0, err
	}
	logger.Log.Info("spot created",
		logger.Int64("spot_id", id),
		logger.Int64("price_cents", priceCents))
	return id, nil
}

func (s *RegistryService) List(ctx context.Context) ([]domain.Spot, error) {
	return s.store.ListSpots(ctx)
}

func (s *RegistryService) ListAvailable(ctx context.Context) ([]domain.Spot, error) {
	return s.store.ListAvailableSpots(ctx)
}

func (s *RegistryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteSpot(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("spot deleted", logger.Int64("spot_id", id))
	return nil
}
