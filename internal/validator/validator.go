// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"fintrack/internal/models"
)

// phoneNumberRegex accepts E.164-style numbers with an optional leading plus.
var phoneNumberRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("transaction_category", validateTransactionCategory)
		_ = v.RegisterValidation("phone_number", validatePhoneNumber)
	}
}

// IsPhoneNumber reports whether s looks like a phone number.
func IsPhoneNumber(s string) bool {
	return phoneNumberRegex.MatchString(s)
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).Valid()
}

func validateTransactionCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	return IsPhoneNumber(fl.Field().String())
}
