package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/parkops/parkops/internal/domain"
	"github.com/parkops/parkops/internal/store"
	"github.com/parkops/parkops/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// AccountService owns user identity records. Credentials are stored as
// bcrypt hashes; the raw secret never reaches the store or the logs.
type AccountService struct {
	store      store.Store
	bcryptCost int
}

func NewAccountService(s store.Store, bcryptCost int) *AccountService {
	return &AccountService{store: s, bcryptCost: bcryptCost}
}

// Create registers a new user with a zero balance and no held spots.
func (s *AccountService) Create(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return domain.ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("error while hashing password: %w", err)
	}

	if err := s.store.CreateUser(ctx, username, string(hash)); err != nil {
		return err
	}

	logger.Log.Info("user created", logger.String("username", username))
	return nil
}

// Authenticate verifies a login attempt against the stored hash.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) error {
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warn("incorrect password", logger.String("username", username))
		return domain.ErrInvalidCredentials
	}
	return nil
}

// Get returns a read-only view of the user record.
func (s *AccountService) Get(ctx context.Context, username string) (*domain.User, error) {
	return s.store.GetUser(ctx, username)
}

// HeldSpots returns the spots currently reserved by the user. Unknown
// users are a NotFound; an empty result for an existing user is not.
func (s *AccountService) HeldSpots(ctx context.Context, username string) ([]domain.Spot, error) {
	if _, err := s.store.GetUser(ctx, username); err != nil {
		return nil, err
	}
	return s.store.SpotsHeldBy(ctx, username)
}
