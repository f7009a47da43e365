package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/parkops/parkops/internal/domain"
)

// MemoryStore is a map-backed Store used by tests and as the dev-mode
// backend when no database is configured. A single mutex covers every
// operation, which gives the same serialization the postgres row locks
// provide: spot transitions, wallet arithmetic and id allocation are all
// critical sections.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	spots      map[int64]*domain.Spot
	lastSpotID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*domain.User),
		spots: make(map[int64]*domain.Spot),
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateUser(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return domain.ErrUserExists
	}
	s.users[username] = &domain.User{
		Username:     username,
		PasswordHash: passwordHash,
		HeldSpots:    []int64{},
		CreatedAt:    time.Now(),
	}
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	cp.HeldSpots = slices.Clone(u.HeldSpots)
	return &cp, nil
}

func (s *MemoryStore) Credit(_ context.Context, username string, amountCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.BalanceCents += amountCents
	return u.BalanceCents, nil
}

func (s *MemoryStore) Debit(_ context.Context, username string, amountCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[username]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if u.BalanceCents < amountCents {
		return 0, domain.ErrInsufficientFunds
	}
	u.BalanceCents -= amountCents
	return u.BalanceCents, nil
}

func (s *MemoryStore) CreateSpot(_ context.Context, priceCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// lastSpotID only grows, so freed ids are never handed out again.
	s.lastSpotID++
	id := s.lastSpotID
	s.spots[id] = &domain.Spot{ID: id, Available: true, PriceCents: priceCents}
	return id, nil
}

func (s *MemoryStore) GetSpot(_ context.Context, id int64) (*domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spots[id]
	if !ok {
		return nil, domain.ErrSpotNotFound
	}
	cp := *sp
	return &cp, nil
}

func (s *MemoryStore) ListSpots(_ context.Context) ([]domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(*domain.Spot) bool { return true }), nil
}

func (s *MemoryStore) ListAvailableSpots(_ context.Context) ([]domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(sp *domain.Spot) bool { return sp.Available }), nil
}

func (s *MemoryStore) SpotsHeldBy(_ context.Context, username string) ([]domain.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(sp *domain.Spot) bool { return sp.Occupant == username }), nil
}

// collect must be called with the mutex held.
func (s *MemoryStore) collect(keep func(*domain.Spot) bool) []domain.Spot {
	spots := []domain.Spot{}
	for _, sp := range s.spots {
		if keep(sp) {
			spots = append(spots, *sp)
		}
	}
	slices.SortFunc(spots, func(a, b domain.Spot) int {
		return int(a.ID - b.ID)
	})
	return spots
}

func (s *MemoryStore) DeleteSpot(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spots[id]
	if !ok {
		return domain.ErrSpotNotFound
	}
	if !sp.Available {
		return domain.ErrSpotOccupied
	}
	delete(s.spots, id)
	return nil
}

func (s *MemoryStore) ReserveSpot(_ context.Context, id int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spots[id]
	if !ok {
		return domain.ErrSpotNotFound
	}
	if !sp.Available {
		return domain.ErrSpotUnavailable
	}
	u, ok := s.users[username]
	if !ok {
		return domain.ErrUserNotFound
	}

	sp.Available = false
	sp.Occupant = username
	u.HeldSpots = append(u.HeldSpots, id)
	return nil
}

func (s *MemoryStore) ReleaseSpot(_ context.Context, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, ok := s.spots[id]
	if !ok {
		return "", domain.ErrSpotNotFound
	}
	if sp.Available || sp.Occupant == "" {
		return "", domain.ErrSpotNotReserved
	}

	occupant := sp.Occupant
	sp.Available = true
	sp.Occupant = ""
	if u, ok := s.users[occupant]; ok {
		u.HeldSpots = slices.DeleteFunc(u.HeldSpots, func(held int64) bool {
			return held == id
		})
	}
	return occupant, nil
}
