package store

import (
	"context"

	"github.com/parkops/parkops/internal/domain"
)

// Store is the persistence contract shared by the postgres and in-memory
// implementations. Cross-entity operations (ReserveSpot, ReleaseSpot,
// DeleteSpot) and wallet arithmetic are atomic: their guard check and the
// update are a single critical section, and a failed guard leaves both
// records untouched. Implementations report failures with the sentinel
// errors in the domain package.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, username, passwordHash string) error
	GetUser(ctx context.Context, username string) (*domain.User, error)

	// Wallet. Amounts are positive cents; Debit fails with
	// domain.ErrInsufficientFunds rather than let a balance go negative.
	Credit(ctx context.Context, username string, amountCents int64) (int64, error)
	Debit(ctx context.Context, username string, amountCents int64) (int64, error)

	// Spots. CreateSpot assigns the next id; ids are monotonically
	// increasing and never reused, even after a delete.
	CreateSpot(ctx context.Context, priceCents int64) (int64, error)
	GetSpot(ctx context.Context, id int64) (*domain.Spot, error)
	ListSpots(ctx context.Context) ([]domain.Spot, error)
	ListAvailableSpots(ctx context.Context) ([]domain.Spot, error)
	SpotsHeldBy(ctx context.Context, username string) ([]domain.Spot, error)
	DeleteSpot(ctx context.Context, id int64) error

	// Reservations. ReserveSpot flips the spot to occupied and records the
	// id in the user's held set as one transition. ReleaseSpot reverses it
	// and returns the occupant it resolved from the spot record.
	ReserveSpot(ctx context.Context, id int64, username string) error
	ReleaseSpot(ctx context.Context, id int64) (string, error)

	Close()
}
