package main

import (
	"context"

	"github.com/baajur/payments-gateway/internal/application/accountservice"
	"github.com/baajur/payments-gateway/internal/application/ledgerservice"
	"github.com/baajur/payments-gateway/internal/infrastructure/clients"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
	"github.com/baajur/payments-gateway/internal/infrastructure/rabbit"
	"github.com/baajur/payments-gateway/internal/repositories/accountrepo"
	"github.com/baajur/payments-gateway/internal/repositories/transactionrepo"
	"github.com/baajur/payments-gateway/internal/server"
	"github.com/baajur/payments-gateway/pkg/config"
	"github.com/baajur/payments-gateway/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithConfig(cfg.Logger)

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	executor := database.NewExecutor(db, cfg.Database.Workers, log)

	publisher, err := rabbit.New(cfg.Broker, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to broker")
	}
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// An undeclared topology would silently drop every event; fail fast.
	if err := publisher.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to declare broker topology")
	}

	accountRepo := accountrepo.New(db, log)
	transactionRepo := transactionrepo.New(db, log)
	exchangeClient := clients.NewExchangeClient(cfg.Exchange, log)
	settlementClient := clients.NewSettlementClient(cfg.Settlement, log)

	accountSvc := accountservice.New(accountRepo, executor, log)
	ledgerSvc := ledgerservice.New(
		accountRepo,
		transactionRepo,
		executor,
		publisher,
		exchangeClient,
		settlementClient,
		cfg.Ledger,
		log,
	)

	if cfg.Ledger.SweepInterval > 0 {
		go func() {
			if err := ledgerSvc.StartHoldSweeper(ctx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("Hold sweeper exited")
			}
		}()
	}

	srv := server.New(cfg, accountSvc, ledgerSvc, db, publisher, log)
	srv.Start()
}
