package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/expensa/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/expensa/internal/catalog/store"
	"github.com/MrJamesThe3rd/expensa/internal/config"
	"github.com/MrJamesThe3rd/expensa/internal/database"
	"github.com/MrJamesThe3rd/expensa/internal/expense"
	expenseStore "github.com/MrJamesThe3rd/expensa/internal/expense/store"
	"github.com/MrJamesThe3rd/expensa/internal/filestore"
	expensaHttp "github.com/MrJamesThe3rd/expensa/internal/http"
	catalogHandler "github.com/MrJamesThe3rd/expensa/internal/http/catalog"
	expenseHandler "github.com/MrJamesThe3rd/expensa/internal/http/expense"
	identityHandler "github.com/MrJamesThe3rd/expensa/internal/http/identity"
	notificationHandler "github.com/MrJamesThe3rd/expensa/internal/http/notification"
	orderHandler "github.com/MrJamesThe3rd/expensa/internal/http/order"
	reportHandler "github.com/MrJamesThe3rd/expensa/internal/http/report"
	txHandler "github.com/MrJamesThe3rd/expensa/internal/http/transaction"
	"github.com/MrJamesThe3rd/expensa/internal/identity"
	identityStore "github.com/MrJamesThe3rd/expensa/internal/identity/store"
	"github.com/MrJamesThe3rd/expensa/internal/notification"
	notificationStore "github.com/MrJamesThe3rd/expensa/internal/notification/store"
	"github.com/MrJamesThe3rd/expensa/internal/order"
	orderStore "github.com/MrJamesThe3rd/expensa/internal/order/store"
	"github.com/MrJamesThe3rd/expensa/internal/report"
	reportStore "github.com/MrJamesThe3rd/expensa/internal/report/store"
	"github.com/MrJamesThe3rd/expensa/internal/transaction"
	txStore "github.com/MrJamesThe3rd/expensa/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid time zone", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), database.Options{
		DSN:             cfg.ConnectionString(),
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		PingTimeout:     cfg.DB.PingTimeout,
		AutoMigrate:     cfg.DB.AutoMigrate,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var transport notification.Transport = notification.LogTransport{}
	if cfg.Realtime.WebhookURL != "" {
		transport = notification.NewWebhookTransport(cfg.Realtime.WebhookURL, cfg.Realtime.Timeout)
	}

	bills := filestore.New(cfg.Media.Root, cfg.Media.BaseURL)

	var (
		identityService     = identity.NewService(identityStore.New(db), identity.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL))
		notificationService = notification.NewService(notificationStore.New(db), identityService, transport)
		transactionService  = transaction.NewService(txStore.New(db))
		catalogService      = catalog.NewService(catalogStore.New(db))
		expenseService      = expense.NewService(expenseStore.New(db), notificationService, bills, loc)
		orderService        = order.NewService(orderStore.New(db), loc)
		reportService       = report.NewService(reportStore.New(db, loc), identityService, loc)
	)

	notificationService.WithPushTimeout(cfg.Realtime.Timeout)

	router := expensaHttp.New(
		expensaHttp.Options{
			Auth:           identityService,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Timeout:        cfg.Server.Timeout,
			MediaRoot:      bills.Root(),
			MediaPrefix:    cfg.Media.BaseURL,
		},
		expensaHttp.Handlers{
			Identity:      identityHandler.NewHandler(identityService),
			Catalog:       catalogHandler.NewHandler(catalogService),
			Expenses:      expenseHandler.NewHandler(expenseService),
			Orders:        orderHandler.NewHandler(orderService),
			Reports:       reportHandler.NewHandler(reportService),
			Transactions:  txHandler.NewHandler(transactionService),
			Notifications: notificationHandler.NewHandler(notificationService),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      2 * cfg.Server.Timeout,
	}

	slog.Info("starting server", "port", srv.Addr, "time_zone", loc.String())

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
