package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/report"
)

// NewUserInput holds the fields collected at registration.
type NewUserInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(input NewUserInput) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByPhone(phoneNumber string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	ValidateCurrentPassword(email, currentPassword string) error
	UpdatePassword(email, newPassword string) (*models.User, error)
}

// TransactionInput holds the fields of a new transaction. A zero Date
// means now.
type TransactionInput struct {
	Name     string
	Category models.Category
	Amount   decimal.Decimal
	Type     models.TransactionType
	Date     time.Time
}

// TransactionUpdate holds a partial update. Nil fields keep their
// current value.
type TransactionUpdate struct {
	Name     *string
	Category *models.Category
	Amount   *decimal.Decimal
	Type     *models.TransactionType
	Date     *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(user *models.User, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string) ([]models.Transaction, error)
	GetUserTransactionsPage(userID string, page pagination.PageRequest) ([]models.Transaction, int64, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	Summarize(userID string, opts report.Options) (*report.Summary, error)
}

// OTPServicer issues and checks one-time passwords sent by e-mail.
type OTPServicer interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*models.User, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
