package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	reportLocation     *time.Location
}

// NewTransactionHandler creates a new TransactionHandler. Summaries bucket
// months in reportLocation unless the request names another zone.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, reportLocation *time.Location) *TransactionHandler {
	if reportLocation == nil {
		reportLocation = time.UTC
	}
	return &TransactionHandler{
		transactionService: transactionService,
		auditService:       auditService,
		reportLocation:     reportLocation,
	}
}

// AddTransactionRequest represents the request payload for creating a transaction
type AddTransactionRequest struct {
	Name     string                 `json:"name" binding:"required,max=200"`
	Category models.Category        `json:"category" binding:"required,transaction_category"`
	Amount   *decimal.Decimal       `json:"amount" binding:"required" swaggertype:"number"`
	Type     models.TransactionType `json:"type" binding:"required,transaction_type"`
	Date     *string                `json:"date"`
}

// UpdateTransactionRequest is a partial update; omitted fields are unchanged.
type UpdateTransactionRequest struct {
	Name     *string                 `json:"name" binding:"omitempty,max=200"`
	Category *models.Category        `json:"category" binding:"omitempty,transaction_category"`
	Amount   *decimal.Decimal        `json:"amount" swaggertype:"number"`
	Type     *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Date     *string                 `json:"date"`
}

// ListTransactions returns the caller's transactions
// @Summary     List transactions
// @Description List the authenticated user's transactions, newest first. Passing page or pageSize returns one page wrapped with totals.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page     query int false "Page number, from 1"
// @Param       pageSize query int false "Items per page, at most 100"
// @Success     200 {array}  models.Transaction "Transactions"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var pageReq pagination.PageRequest
	if err := c.ShouldBindQuery(&pageReq); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if pageReq.Requested() {
		pageReq = pageReq.Normalize()
		transactions, total, err := h.transactionService.GetUserTransactionsPage(userID, pageReq)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, pagination.NewPage(transactions, pageReq, total))
		return
	}

	transactions, err := h.transactionService.GetUserTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// AddTransaction handles the creation of a new transaction
// @Summary     Add a transaction
// @Description Record an income or expense. The date defaults to now.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/add [post]
func (h *TransactionHandler) AddTransaction(c *gin.Context) {
	owner, err := getOwner(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		date, err = parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	transaction, err := h.transactionService.CreateTransaction(owner, services.TransactionInput{
		Name:     req.Name,
		Category: req.Category,
		Amount:   *req.Amount,
		Type:     req.Type,
		Date:     date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(owner.ID, services.AuditActionCreateTransaction, "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"type": transaction.Type, "amount": transaction.Amount.String(), "category": transaction.Category})

	c.JSON(http.StatusCreated, transaction)
}

// UpdateTransaction applies a partial update
// @Summary     Update a transaction
// @Description Change any subset of a transaction's fields.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.TransactionUpdate{
		Name:     req.Name,
		Category: req.Category,
		Amount:   req.Amount,
		Type:     req.Type,
	}
	changes := map[string]interface{}{}
	if req.Date != nil && *req.Date != "" {
		date, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		update.Date = &date
		changes["date"] = date
	}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Category != nil {
		changes["category"] = *req.Category
	}
	if req.Amount != nil {
		changes["amount"] = req.Amount.String()
	}
	if req.Type != nil {
		changes["type"] = *req.Type
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdateTransaction, "transaction", transactionID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDeleteTransaction, "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// GetSummary aggregates the caller's transactions for charts
// @Summary     Transaction summary
// @Description Totals by type, expenses by category, and monthly series. Months are bucketed in tz.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       tz query string false "IANA timezone, e.g. Europe/Rome"
// @Param       order query string false "Month order" Enums(chronological, lexical)
// @Success     200 {object} report.Summary "Summary"
// @Failure     400 {object} ErrorResponse "Unknown timezone or month order"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/summary [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loc := h.reportLocation
	if tz := c.Query("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown timezone: "+tz))
			return
		}
	}

	order, ok := report.ParseMonthOrder(c.Query("order"))
	if !ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown month order: "+c.Query("order")))
		return
	}

	summary, err := h.transactionService.Summarize(userID, report.Options{Location: loc, MonthOrder: order})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
