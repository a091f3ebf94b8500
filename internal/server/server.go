package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/application/accountservice"
	"github.com/baajur/payments-gateway/internal/application/ledgerservice"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
	"github.com/baajur/payments-gateway/internal/infrastructure/rabbit"
	"github.com/baajur/payments-gateway/internal/server/handlers"
	"github.com/baajur/payments-gateway/pkg/config"
)

type Server struct {
	AccountSvc accountservice.IAccountService
	LedgerSvc  ledgerservice.ILedgerService
	Cfg        *config.Config
	Logger     zerolog.Logger
	Router     *gin.Engine
	httpServer *http.Server
	db         *database.DBManager
	publisher  rabbit.ITransactionPublisher
}

func New(cfg *config.Config, accountSvc accountservice.IAccountService, ledgerSvc ledgerservice.ILedgerService, db *database.DBManager, publisher rabbit.ITransactionPublisher, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	return &Server{
		AccountSvc: accountSvc,
		LedgerSvc:  ledgerSvc,
		Cfg:        cfg,
		Logger:     logger,
		Router:     gin.New(),
		db:         db,
		publisher:  publisher,
	}
}

func (s *Server) SetupRouter() {
	handler := handlers.New(s.AccountSvc, s.LedgerSvc, s.Logger)
	handler.SetupHandlers(s.Router, s.db, s.publisher)
}

func (s *Server) Start() {
	s.SetupRouter()

	s.httpServer = &http.Server{
		Addr:         s.Cfg.Server.Host + ":" + s.Cfg.Server.Port,
		Handler:      s.Router,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	s.Logger.Info().Msgf("Starting server on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-stopChan
	s.Logger.Info().Msg("Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.Logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	s.Logger.Info().Msg("Server exited gracefully")
}
