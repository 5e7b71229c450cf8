package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is a supported transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents an income or expense recorded by a user
type Transaction struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index" json:"user"`
	Email    string          `gorm:"not null;index" json:"email"`
	Name     string          `gorm:"not null" json:"name"`
	Category Category        `gorm:"not null" json:"category"`
	Amount   decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Type     TransactionType `gorm:"not null" json:"type"`
	Date     time.Time       `gorm:"not null;index" json:"date"`
}
