package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/parkops/parkops/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreWithUser(t *testing.T, username string) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	require.NoError(t, s.CreateUser(context.Background(), username, "hash"))
	return s
}

func TestCreateUserDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	err := s.CreateUser(ctx, "alice", "other-hash")
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestGetUserNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	u.BalanceCents = 999999
	u.HeldSpots = append(u.HeldSpots, 42)

	fresh, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, fresh.BalanceCents)
	assert.Empty(t, fresh.HeldSpots)
}

func TestCreditDebit(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "bob")

	balance, err := s.Credit(ctx, "bob", 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), balance)

	balance, err = s.Debit(ctx, "bob", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)
}

func TestDebitInsufficientFundsLeavesBalance(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "bob")

	_, err := s.Credit(ctx, "bob", 2000)
	require.NoError(t, err)

	_, err = s.Debit(ctx, "bob", 2500)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	u, err := s.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), u.BalanceCents)
}

func TestWalletUnknownUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Credit(ctx, "ghost", 100)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.Debit(ctx, "ghost", 100)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateSpotSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)
	second, err := s.CreateSpot(ctx, 700)
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestDeletedSpotIDNeverReused(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)
	require.NoError(t, s.DeleteSpot(ctx, first))

	second, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestDeleteOccupiedSpotRejected(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	id, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)
	require.NoError(t, s.ReserveSpot(ctx, id, "alice"))

	err = s.DeleteSpot(ctx, id)
	require.ErrorIs(t, err, domain.ErrSpotOccupied)

	// The relationship survives unchanged on both sides.
	sp, err := s.GetSpot(ctx, id)
	require.NoError(t, err)
	assert.False(t, sp.Available)
	assert.Equal(t, "alice", sp.Occupant)

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, u.HeldSpots)
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	id, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)

	require.NoError(t, s.ReserveSpot(ctx, id, "alice"))
	assertConsistent(t, s)

	occupant, err := s.ReleaseSpot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", occupant)
	assertConsistent(t, s)

	sp, err := s.GetSpot(ctx, id)
	require.NoError(t, err)
	assert.True(t, sp.Available)
	assert.Empty(t, sp.Occupant)

	u, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, u.HeldSpots)
}

func TestReserveGuards(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	id, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)

	err = s.ReserveSpot(ctx, 999, "alice")
	assert.ErrorIs(t, err, domain.ErrSpotNotFound)

	err = s.ReserveSpot(ctx, id, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, s.ReserveSpot(ctx, id, "alice"))
	err = s.ReserveSpot(ctx, id, "alice")
	assert.ErrorIs(t, err, domain.ErrSpotUnavailable)
}

func TestReleaseGuards(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	id, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)

	_, err = s.ReleaseSpot(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrSpotNotFound)

	_, err = s.ReleaseSpot(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSpotNotReserved)
}

func TestListAvailableSpots(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")

	first, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)
	second, err := s.CreateSpot(ctx, 700)
	require.NoError(t, err)
	require.NoError(t, s.ReserveSpot(ctx, first, "alice"))

	available, err := s.ListAvailableSpots(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, second, available[0].ID)

	all, err := s.ListSpots(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSpotsHeldBy(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "alice")
	require.NoError(t, s.CreateUser(ctx, "bob", "hash"))

	first, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)
	_, err = s.CreateSpot(ctx, 700)
	require.NoError(t, err)
	require.NoError(t, s.ReserveSpot(ctx, first, "alice"))

	held, err := s.SpotsHeldBy(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, first, held[0].ID)

	held, err = s.SpotsHeldBy(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestConcurrentReserveExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const contenders = 32
	for i := 0; i < contenders; i++ {
		require.NoError(t, s.CreateUser(ctx, username(i), "hash"))
	}
	id, err := s.CreateSpot(ctx, 500)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	conflicts := 0

	wg.Add(contenders)
	for i := 0; i < contenders; i++ {
		go func(who string) {
			defer wg.Done()
			err := s.ReserveSpot(ctx, id, who)
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				successes++
			case domain.ErrSpotUnavailable:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(username(i))
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, contenders-1, conflicts)
	assertConsistent(t, s)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	s := newStoreWithUser(t, "bob")
	_, err := s.Credit(ctx, "bob", 1000)
	require.NoError(t, err)

	const attempts = 50
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			s.Debit(ctx, "bob", 100)
		}()
	}
	wg.Wait()

	u, err := s.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, u.BalanceCents, int64(0))
	assert.Zero(t, u.BalanceCents) // 10 of the 50 go through
}

func username(i int) string {
	return fmt.Sprintf("user-%d", i)
}

// assertConsistent checks the bidirectional spot/user relationship: a
// spot is unavailable exactly when it has an occupant, the spot's id
// appears in that occupant's held set, and held sets reference only
// spots occupied by that user.
func assertConsistent(t *testing.T, s *MemoryStore) {
	t.Helper()
	ctx := context.Background()

	spots, err := s.ListSpots(ctx)
	require.NoError(t, err)

	for _, sp := range spots {
		if sp.Available {
			assert.Empty(t, sp.Occupant, "spot %d available but occupied", sp.ID)
			continue
		}
		require.NotEmpty(t, sp.Occupant, "spot %d unavailable but unoccupied", sp.ID)

		u, err := s.GetUser(ctx, sp.Occupant)
		require.NoError(t, err)
		assert.Contains(t, u.HeldSpots, sp.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, u := range s.users {
		for _, id := range u.HeldSpots {
			sp, ok := s.spots[id]
			require.True(t, ok, "user %s holds missing spot %d", name, id)
			assert.Equal(t, name, sp.Occupant)
		}
	}
}
