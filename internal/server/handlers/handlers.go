package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/application/accountservice"
	"github.com/baajur/payments-gateway/internal/application/ledgerservice"
	"github.com/baajur/payments-gateway/internal/domain"
	"github.com/baajur/payments-gateway/internal/infrastructure/database"
	"github.com/baajur/payments-gateway/internal/infrastructure/rabbit"
)

// Handlers is the thin adapter layer: it binds already-shaped JSON commands
// onto core operations and maps domain errors to status codes. Request-level
// field validation beyond shape belongs to the upstream gateway.
type Handlers struct {
	AccountSvc accountservice.IAccountService
	LedgerSvc  ledgerservice.ILedgerService
	Logger     zerolog.Logger
}

func New(accountSvc accountservice.IAccountService, ledgerSvc ledgerservice.ILedgerService, logger zerolog.Logger) *Handlers {
	return &Handlers{
		AccountSvc: accountSvc,
		LedgerSvc:  ledgerSvc,
		Logger:     logger,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine, db *database.DBManager, publisher rabbit.ITransactionPublisher) {
	healthHandler := NewHealthHandler(db, publisher)
	accountHandler := NewAccountHandler(h.AccountSvc, h.Logger)
	transactionHandler := NewTransactionHandler(h.LedgerSvc, h.Logger)

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("/:id", accountHandler.GetAccount)
			accounts.PUT("/:id", accountHandler.UpdateAccountName)
			accounts.GET("/:id/balance", accountHandler.GetBalance)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.CreateTransaction)
			transactions.GET("/:id", transactionHandler.GetTransaction)
			transactions.PUT("/:id", transactionHandler.UpdateTransactionStatus)
		}

		users := v1.Group("/users/:user_id")
		{
			users.GET("/accounts", accountHandler.ListUserAccounts)
			users.GET("/transactions", transactionHandler.ListUserTransactions)
		}
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrBrokerUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), gin.H{"error": err.Error()})
}
