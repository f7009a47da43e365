package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/parkops/parkops/internal/domain"
	"github.com/parkops/parkops/pkg/logger"
)

type accountService interface {
	Create(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) error
	HeldSpots(ctx context.Context, username string) ([]domain.Spot, error)
}

type walletService interface {
	Credit(ctx context.Context, username string, amountCents int64) (int64, error)
	Debit(ctx context.Context, username string, amountCents int64) (int64, error)
	Balance(ctx context.Context, username string) (int64, error)
}

type registryService interface {
	Create(ctx context.Context, priceCents int64) (int64, error)
	List(ctx context.Context) ([]domain.Spot, error)
	ListAvailable(ctx context.Context) ([]domain.Spot, error)
	Delete(ctx context.Context, id int64) error
}

type reservationService interface {
	Reserve(ctx context.Context, id int64, username string) error
	Release(ctx context.Context, id int64) (string, error)
}

type Handler struct {
	accounts     accountService
	wallet       walletService
	registry     registryService
	reservations reservationService
}

func NewHandler(accounts accountService, wallet walletService, registry registryService, reservations reservationService) *Handler {
	return &Handler{
		accounts:     accounts,
		wallet:       wallet,
		registry:     registry,
		reservations: reservations,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("pswd")

	if err := h.accounts.Authenticate(r.Context(), username, password); err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"login": "successful"})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")

	if err := h.accounts.Create(r.Context(), username, password); err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "user created"})
}

func (h *Handler) HeldSpots(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	spots, err := h.accounts.HeldSpots(r.Context(), username)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"reserved_spots": spots})
}

func (h *Handler) CreditWallet(w http.ResponseWriter, r *http.Request) {
	h.updateWallet(w, r, h.wallet.Credit)
}

func (h *Handler) DebitWallet(w http.ResponseWriter, r *http.Request) {
	h.updateWallet(w, r, h.wallet.Debit)
}

func (h *Handler) updateWallet(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, int64) (int64, error)) {
	username := mux.Vars(r)["username"]

	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "amount must be an integer number of cents")
		return
	}

	balance, err := apply(r.Context(), username, amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"username":      username,
		"balance_cents": balance,
	})
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	balance, err := h.wallet.Balance(r.Context(), username)
	if err != nil {
		if errors.Is(err, domain.ErrNoWallet) {
			respondWithJSON(w, http.StatusOK, map[string]string{"message": "account does not have a wallet"})
			return
		}
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"username":      username,
		"balance_cents": balance,
	})
}

func (h *Handler) ListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.registry.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"parking_spots": spots})
}

func (h *Handler) ListAvailableSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := h.registry.ListAvailable(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	// The public API treats an empty result as 404; the registry itself
	// returns a plain empty list.
	if len(spots) == 0 {
		respondWithError(w, http.StatusNotFound, "no available parking spots found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"available_spots": spots})
}

type createSpotRequest struct {
	PriceCents int64 `json:"price_cents"`
}

func (h *Handler) CreateSpot(w http.ResponseWriter, r *http.Request) {
	var req createSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	id, err := h.registry.Create(r.Context(), req.PriceCents)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]int64{"spot_id": id})
}

func (h *Handler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	id, ok := spotID(w, r)
	if !ok {
		return
	}

	if err := h.registry.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"spot_id": id, "status": "deleted"})
}

func (h *Handler) ReserveSpot(w http.ResponseWriter, r *http.Request) {
	id, ok := spotID(w, r)
	if !ok {
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		respondWithError(w, http.StatusUnprocessableEntity, "username is required")
		return
	}

	if err := h.reservations.Reserve(r.Context(), id, username); err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"spot_id":  id,
		"username": username,
		"status":   "reserved",
	})
}

func (h *Handler) ReleaseSpot(w http.ResponseWriter, r *http.Request) {
	id, ok := spotID(w, r)
	if !ok {
		return
	}

	occupant, err := h.reservations.Release(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"spot_id":  id,
		"username": occupant,
		"status":   "released",
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func spotID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusUnprocessableEntity, "spot id must be a positive integer")
		return 0, false
	}
	return id, true
}

// respondServiceError maps the domain error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrSpotNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrSpotUnavailable),
		errors.Is(err, domain.ErrSpotNotReserved),
		errors.Is(err, domain.ErrSpotOccupied):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrMissingCredentials):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		respondWithError(w, http.StatusPaymentRequired, err.Error())
	default:
		logger.Log.Error("internal error", logger.Error(err))
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
