package service

import (
	"context"
	"fmt"

	"github.com/parkops/parkops/internal/domain"
	"github.com/parkops/parkops/internal/store"
	"github.com/parkops/parkops/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reservationOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "parkops_reservation_operations_total",
	Help: "Reserve/release operations by outcome",
}, []string{"op", "outcome"})

// ReservationService coordinates the cross-entity transition between a
// spot's occupancy flag and the occupant's held-spot set. The store
// applies both sides as one atomic step; this layer sequences the lookups,
// maps guard failures, and optionally charges the spot price.
type ReservationService struct {
	store store.Store
	// payOnReserve debits the spot's price before reserving; a reserve
	// failure after a successful debit is compensated with a credit.
	payOnReserve bool
}

func NewReservationService(s store.Store, payOnReserve bool) *ReservationService {
	return &ReservationService{store: s, payOnReserve: payOnReserve}
}

// Reserve transitions the spot from available to held by username.
func (s *ReservationService) Reserve(ctx context.Context, id int64, username string) error {
	spot, err := s.store.GetSpot(ctx, id)
	if err != nil {
		reservationOps.WithLabelValues("reserve", "not_found").Inc()
		return err
	}
	if !spot.Available {
		reservationOps.WithLabelValues("reserve", "conflict").Inc()
		return domain.ErrSpotUnavailable
	}

	charged := int64(0)
	if s.payOnReserve && spot.PriceCents > 0 {
		if _, err := s.store.Debit(ctx, username, spot.PriceCents); err != nil {
			reservationOps.WithLabelValues("reserve", "payment_failed").Inc()
			return err
		}
		charged = spot.PriceCents
	}

	if err := s.store.ReserveSpot(ctx, id, username); err != nil {
		if charged > 0 {
			s.refund(ctx, username, charged)
		}
		reservationOps.WithLabelValues("reserve", outcomeFor(err)).Inc()
		return err
	}

	reservationOps.WithLabelValues("reserve", "ok").Inc()
	logger.Log.Info("spot reserved",
		logger.Int64("spot_id", id),
		logger.String("username", username))
	return nil
}

// Release transitions the spot back to available. The occupant is
// resolved from the spot record, never from caller input, and returned so
// the boundary can report whose reservation ended.
func (s *ReservationService) Release(ctx context.Context, id int64) (string, error) {
	occupant, err := s.store.ReleaseSpot(ctx, id)
	if err != nil {
		reservationOps.WithLabelValues("release", outcomeFor(err)).Inc()
		return "", err
	}

	reservationOps.WithLabelValues("release", "ok").Inc()
	logger.Log.Info("spot released",
		logger.Int64("spot_id", id),
		logger.String("username", occupant))
	return occupant, nil
}

// refund reverses a charge whose reservation did not go through. The
// credit must eventually apply or the wallet is short; a failure here is
// loud because there is no further fallback.
func (s *ReservationService) refund(ctx context.Context, username string, amountCents int64) {
	if _, err := s.store.Credit(ctx, username, amountCents); err != nil {
		logger.Log.Error("compensating credit failed",
			logger.String("username", username),
			logger.Int64("amount_cents", amountCents),
			logger.Error(fmt.Errorf("refund: %w", err)))
	}
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case err == domain.ErrSpotNotFound || err == domain.ErrUserNotFound:
		return "not_found"
	case err == domain.ErrSpotUnavailable || err == domain.ErrSpotNotReserved:
		return "conflict"
	default:
		return "error"
	}
}
