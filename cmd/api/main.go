package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/campusfin/internal/budget"
	"github.com/MrJamesThe3rd/campusfin/internal/config"
	apiHttp "github.com/MrJamesThe3rd/campusfin/internal/http"
	budgetHandler "github.com/MrJamesThe3rd/campusfin/internal/http/budget"
	importHandler "github.com/MrJamesThe3rd/campusfin/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/campusfin/internal/http/matching"
	overviewHandler "github.com/MrJamesThe3rd/campusfin/internal/http/overview"
	txHandler "github.com/MrJamesThe3rd/campusfin/internal/http/transaction"
	"github.com/MrJamesThe3rd/campusfin/internal/importer"
	"github.com/MrJamesThe3rd/campusfin/internal/logging"
	"github.com/MrJamesThe3rd/campusfin/internal/matching"
	"github.com/MrJamesThe3rd/campusfin/internal/overview"
	"github.com/MrJamesThe3rd/campusfin/internal/storage"
	"github.com/MrJamesThe3rd/campusfin/internal/transaction"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	var (
		transactionService = transaction.NewService(repos.Transactions)
		budgetService      = budget.NewService(repos.Budgets, transactionService, time.Now)
		overviewService    = overview.NewService(transactionService, time.Now)
		matchingService    = matching.NewService(repos.Mappings)
		importService      = importer.NewService(matchingService)
	)

	router := apiHttp.New(apiHttp.Handlers{
		Transactions: txHandler.NewHandler(transactionService),
		Budgets:      budgetHandler.NewHandler(budgetService),
		Overview:     overviewHandler.NewHandler(overviewService),
		Import:       importHandler.NewHandler(importService, transactionService),
		Matching:     matchingHandler.NewHandler(matchingService),
	}, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "storage", cfg.Storage.Driver)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
