package domain

import "errors"

var (
	ErrUserExists         = errors.New("user already exists")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoWallet           = errors.New("account has no wallet")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidPrice       = errors.New("price must be non-negative")
	ErrSpotNotFound       = errors.New("parking spot not found")
	ErrSpotUnavailable    = errors.New("parking spot is not available")
	ErrSpotNotReserved    = errors.New("parking spot is not reserved")
	ErrSpotOccupied       = errors.New("parking spot is in use")
)
