package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parkops/parkops/internal/domain"
)

const pgUniqueViolation = "23505"

const schema = `
CREATE SEQUENCE IF NOT EXISTS spot_ids;

CREATE TABLE IF NOT EXISTS users (
    username      TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL,
    balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
    held_spots    BIGINT[] NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS spots (
    id          BIGINT PRIMARY KEY DEFAULT nextval('spot_ids'),
    available   BOOLEAN NOT NULL DEFAULT TRUE,
    occupant    TEXT REFERENCES users(username),
    price_cents BIGINT NOT NULL CHECK (price_cents >= 0)
);
`

// PostgresStore implements Store on a pgx connection pool. Reserve,
// release and delete serialize on the spot row via SELECT ... FOR UPDATE;
// wallet arithmetic is a single conditional UPDATE so the balance check
// and the write cannot interleave.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &PostgresStore{db: pool}
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) init(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("schema bootstrap failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2)",
		username, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("user insert failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx,
		"SELECT username, password_hash, balance_cents, held_spots, created_at FROM users WHERE username = $1",
		username).Scan(&u.Username, &u.PasswordHash, &u.BalanceCents, &u.HeldSpots, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("user query failed: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) Credit(ctx context.Context, username string, amountCents int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx,
		"UPDATE users SET balance_cents = balance_cents + $2 WHERE username = $1 RETURNING balance_cents",
		username, amountCents).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("credit failed: %w", err)
	}
	return balance, nil
}

func (s *PostgresStore) Debit(ctx context.Context, username string, amountCents int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx,
		"UPDATE users SET balance_cents = balance_cents - $2 WHERE username = $1 AND balance_cents >= $2 RETURNING balance_cents",
		username, amountCents).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debit failed: %w", err)
	}

	// No row matched: either the user is missing or the guard rejected
	// the overdraft.
	var exists bool
	if err := s.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists); err != nil {
		return 0, fmt.Errorf("debit existence check failed: %w", err)
	}
	if !exists {
		return 0, domain.ErrUserNotFound
	}
	return 0, domain.ErrInsufficientFunds
}

func (s *PostgresStore) CreateSpot(ctx context.Context, priceCents int64) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		"INSERT INTO spots (price_cents) VALUES ($1) RETURNING id", priceCents).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("spot insert failed: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSpot(ctx context.Context, id int64) (*domain.Spot, error) {
	var sp domain.Spot
	err := s.db.QueryRow(ctx,
		"SELECT id, available, COALESCE(occupant, ''), price_cents FROM spots WHERE id = $1",
		id).Scan(&sp.ID, &sp.Available, &sp.Occupant, &sp.PriceCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSpotNotFound
		}
		return nil, fmt.Errorf("spot query failed: %w", err)
	}
	return &sp, nil
}

func (s *PostgresStore) ListSpots(ctx context.Context) ([]domain.Spot, error) {
	return s.querySpots(ctx,
		"SELECT id, available, COALESCE(occupant, ''), price_cents FROM spots ORDER BY id")
}

func (s *PostgresStore) ListAvailableSpots(ctx context.Context) ([]domain.Spot, error) {
	return s.querySpots(ctx,
		"SELECT id, available, COALESCE(occupant, ''), price_cents FROM spots WHERE available ORDER BY id")
}

func (s *PostgresStore) SpotsHeldBy(ctx context.Context, username string) ([]domain.Spot, error) {
	return s.querySpots(ctx,
		"SELECT id, available, COALESCE(occupant, ''), price_cents FROM spots WHERE occupant = $1 ORDER BY id",
		username)
}

func (s *PostgresStore) querySpots(ctx context.Context, query string, args ...any) ([]domain.Spot, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("spot query failed: %w", err)
	}
	defer rows.Close()

	spots := []domain.Spot{}
	for rows.Next() {
		var sp domain.Spot
		if err := rows.Scan(&sp.ID, &sp.Available, &sp.Occupant, &sp.PriceCents); err != nil {
			return nil, fmt.Errorf("spot scan failed: %w", err)
		}
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

func (s *PostgresStore) DeleteSpot(ctx context.Context, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var available bool
	err = tx.QueryRow(ctx, "SELECT available FROM spots WHERE id = $1 FOR UPDATE", id).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSpotNotFound
		}
		return fmt.Errorf("spot lock failed: %w", err)
	}
	if !available {
		return domain.ErrSpotOccupied
	}

	if _, err := tx.Exec(ctx, "DELETE FROM spots WHERE id = $1", id); err != nil {
		return fmt.Errorf("spot delete failed: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ReserveSpot(ctx context.Context, id int64, username string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the spot row first, then the user row. Reserve, release and
	// delete all start with the spot lock, so they serialize per spot.
	var available bool
	err = tx.QueryRow(ctx, "SELECT available FROM spots WHERE id = $1 FOR UPDATE", id).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrSpotNotFound
		}
		return fmt.Errorf("spot lock failed: %w", err)
	}
	if !available {
		return domain.ErrSpotUnavailable
	}

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT true FROM users WHERE username = $1 FOR UPDATE", username).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("user lock failed: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE spots SET available = FALSE, occupant = $2 WHERE id = $1", id, username); err != nil {
		return fmt.Errorf("spot update failed: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE users SET held_spots = array_append(held_spots, $2) WHERE username = $1", username, id); err != nil {
		return fmt.Errorf("held spots update failed: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ReleaseSpot(ctx context.Context, id int64) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("tx begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var available bool
	var occupant string
	err = tx.QueryRow(ctx,
		"SELECT available, COALESCE(occupant, '') FROM spots WHERE id = $1 FOR UPDATE",
		id).Scan(&available, &occupant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrSpotNotFound
		}
		return "", fmt.Errorf("spot lock failed: %w", err)
	}
	if available || occupant == "" {
		return "", domain.ErrSpotNotReserved
	}

	if _, err := tx.Exec(ctx,
		"UPDATE spots SET available = TRUE, occupant = NULL WHERE id = $1", id); err != nil {
		return "", fmt.Errorf("spot update failed: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE users SET held_spots = array_remove(held_spots, $2) WHERE username = $1", occupant, id); err != nil {
		return "", fmt.Errorf("held spots update failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("tx commit failed: %w", err)
	}
	return occupant, nil
}
