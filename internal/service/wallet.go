package service

import (
	"context"

	"github.com/parkops/parkops/internal/domain"
	"github.com/parkops/parkops/internal/store"
	"github.com/parkops/parkops/pkg/logger"
)

// AdminUsername is the reserved system account. It has no wallet.
const AdminUsername = "admin"

// WalletService enforces wallet arithmetic: amounts must be positive and
// a balance never goes negative. The read-check-write for a debit happens
// inside the store's critical section, so concurrent debits on the same
// user cannot interleave past the overdraft guard.
type WalletService struct {
	store store.Store
}

func NewWalletService(s store.Store) *WalletService {
	return &WalletService{store: s}
}

func (s *WalletService) Credit(ctx context.Context, username string, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	balance, err := s.store.Credit(ctx, username, amountCents)
	if err != nil {
		return 0, err
	}
	logger.Log.Info("wallet credited",
		logger.String("username", username),
		logger.Int64("amount_cents", amountCents),
		logger.Int64("balance_cents", balance))
	return balance, nil
}

func (s *WalletService) Debit(ctx context.Context, username string, amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	balance, err := s.store.Debit(ctx, username, amountCents)
	if err != nil {
		return 0, err
	}
	logger.Log.Info("wallet debited",
		logger.String("username", username),
		logger.Int64("amount_cents", amountCents),
		logger.Int64("balance_cents", balance))
	return balance, nil
}

// Balance returns the user's balance. The reserved admin account carries
// no wallet and gets ErrNoWallet instead of a number.
func (s *WalletService) Balance(ctx context.Context, username string) (int64, error) {
	if username == AdminUsername {
		return 0, domain.ErrNoWallet
	}
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return 0, err
	}
	return u.BalanceCents, nil
}
