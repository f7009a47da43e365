package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/parkops/parkops/internal/api"
	"github.com/parkops/parkops/internal/config"
	"github.com/parkops/parkops/internal/service"
	"github.com/parkops/parkops/internal/store"
	"github.com/parkops/parkops/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("couldn't load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Env); err != nil {
		log.Fatalf("couldn't initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	st, err := buildStore(cfg)
	if err != nil {
		logger.Log.Fatal("couldn't initialize store", logger.Error(err))
	}
	defer st.Close()

	accounts := service.NewAccountService(st, cfg.BcryptCost)
	wallet := service.NewWalletService(st)
	registry := service.NewRegistryService(st)
	reservations := service.NewReservationService(st, cfg.PayOnReserve)

	handler := api.NewHandler(accounts, wallet, registry, reservations)
	router := api.NewRouter(handler)

	logger.Log.Info("server starting",
		logger.String("addr", cfg.Addr),
		logger.Bool("pay_on_reserve", cfg.PayOnReserve))
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		logger.Log.Fatal("server stopped", logger.Error(err))
	}
}

func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Log.Warn("no DATABASE_URL configured, using in-memory store")
		return store.NewMemoryStore(), nil
	}
	return store.NewPostgresStore(context.Background(), cfg.DatabaseURL)
}
