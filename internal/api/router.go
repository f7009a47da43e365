package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the parking API. The reference route shapes follow the
// original service surface: user operations under /user, spot operations
// under /parking.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.Use(WithRequestID)
	r.Use(WithMetrics)
	r.Use(WithLogging)

	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/user/login", h.Login).Methods(http.MethodGet)
	r.HandleFunc("/user/create", h.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/user/{username}/parking_spots", h.HeldSpots).Methods(http.MethodGet)
	r.HandleFunc("/user/{username}/updateWallet", h.CreditWallet).Methods(http.MethodPut)
	r.HandleFunc("/user/{username}/minusFunds", h.DebitWallet).Methods(http.MethodPut)
	r.HandleFunc("/user/{username}/getWallet", h.GetWallet).Methods(http.MethodGet)

	r.HandleFunc("/parking", h.ListSpots).Methods(http.MethodGet)
	r.HandleFunc("/parking/availability", h.ListAvailableSpots).Methods(http.MethodGet)
	r.HandleFunc("/parking/reserve/{id}", h.ReserveSpot).Methods(http.MethodPut)
	r.HandleFunc("/parking/release/{id}", h.ReleaseSpot).Methods(http.MethodPut)
	r.HandleFunc("/parking/create", h.CreateSpot).Methods(http.MethodPost)
	r.HandleFunc("/parking/delete/{id}", h.DeleteSpot).Methods(http.MethodDelete)

	return r
}
