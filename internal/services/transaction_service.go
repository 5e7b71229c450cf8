package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/report"
)

// transactionService handles transaction-related business logic. Every
// operation is scoped to the owning user.
type transactionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db, now: time.Now}
}

func validateTransactionFields(name string, category models.Category, amount decimal.Decimal, txType models.TransactionType) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !txType.Valid() {
		return apperrors.ErrInvalidTransactionType
	}
	if !category.Valid() {
		return apperrors.ErrInvalidCategory
	}
	return nil
}

// CreateTransaction records a transaction for user
func (s *transactionService) CreateTransaction(user *models.User, input TransactionInput) (*models.Transaction, error) {
	if err := validateTransactionFields(input.Name, input.Category, input.Amount, input.Type); err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	// Stored in UTC so that date ordering compares instants on every driver.
	date = date.UTC()

	transaction := &models.Transaction{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     strings.TrimSpace(input.Name),
		Category: input.Category,
		Amount:   input.Amount,
		Type:     input.Type,
		Date:     date,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// GetUserTransactions lists a user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := s.db.Where("user_id = ?", userID).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

// GetUserTransactionsPage returns one page of a user's transactions, newest
// first, with the user's total transaction count.
func (s *transactionService) GetUserTransactionsPage(userID string, page pagination.PageRequest) ([]models.Transaction, int64, error) {
	page = page.Normalize()

	var total int64
	if err := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	transactions := []models.Transaction{}
	if err := s.db.Where("user_id = ?", userID).
		Order("date DESC").
		Scopes(pagination.Scope(page)).
		Find(&transactions).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, total, nil
}

// GetTransactionByID retrieves a transaction owned by userID. Another
// user's transaction is reported as not found.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		transaction.Name = strings.TrimSpace(*update.Name)
	}
	if update.Category != nil {
		transaction.Category = *update.Category
	}
	if update.Amount != nil {
		transaction.Amount = *update.Amount
	}
	if update.Type != nil {
		transaction.Type = *update.Type
	}
	if update.Date != nil && !update.Date.IsZero() {
		transaction.Date = update.Date.UTC()
	}

	if err := validateTransactionFields(transaction.Name, transaction.Category, transaction.Amount, transaction.Type); err != nil {
		return nil, err
	}

	if err := s.db.Save(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// DeleteTransaction hard-deletes a transaction owned by userID.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	result := s.db.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// Summarize aggregates all of a user's transactions.
func (s *transactionService) Summarize(userID string, opts report.Options) (*report.Summary, error) {
	transactions, err := s.GetUserTransactions(userID)
	if err != nil {
		return nil, err
	}
	summary := report.Build(transactions, opts)
	return &summary, nil
}
