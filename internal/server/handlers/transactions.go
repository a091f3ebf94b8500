package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/baajur/payments-gateway/internal/application/ledgerservice"
	"github.com/baajur/payments-gateway/internal/domain"
)

type TransactionHandler struct {
	ledgerSvc ledgerservice.ILedgerService
	logger    zerolog.Logger
}

func NewTransactionHandler(ledgerSvc ledgerservice.ILedgerService, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, logger: logger}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var cmd domain.CreateTransaction
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.ledgerSvc.CreateTransaction(c.Request.Context(), cmd)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	tx, err := h.ledgerSvc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *TransactionHandler) UpdateTransactionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}

	var req struct {
		Status domain.TransactionStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	tx, err := h.ledgerSvc.UpdateTransactionStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *TransactionHandler) ListUserTransactions(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	limit, offset := paging(c)
	transactions, err := h.ledgerSvc.ListUserTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}
