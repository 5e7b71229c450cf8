package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// MinPasswordLength is the shortest password accepted at registration
// and on reset.
const MinPasswordLength = 6

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// ValidatePassword checks a candidate password against the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Password must be at least 6 characters long.")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new user
func (s *userService) CreateUser(input NewUserInput) (*models.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	if input.Username == "" || input.Email == "" || input.PhoneNumber == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and phone number are required")
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	if err := s.checkDuplicates(input); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:    input.Username,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Password:    string(hashedPassword),
		FirstName:   input.FirstName,
		LastName:    input.LastName,
	}

	if err := s.db.Create(user).Error; err != nil {
		// A concurrent registration may have claimed a unique field
		// between the check and the insert.
		if dupErr := s.checkDuplicates(input); dupErr != nil {
			return nil, dupErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// checkDuplicates reports the first unique field already taken, phone first.
func (s *userService) checkDuplicates(input NewUserInput) error {
	checks := []struct {
		column string
		value  string
		err    *apperrors.AppError
	}{
		{"phone_number", input.PhoneNumber, apperrors.ErrDuplicatePhoneNumber},
		{"email", input.Email, apperrors.ErrDuplicateEmail},
		{"username", input.Username, apperrors.ErrDuplicateUsername},
	}

	for _, check := range checks {
		var count int64
		if err := s.db.Model(&models.User{}).Where(check.column+" = ?", check.value).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return check.err
		}
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.findUser(apperrors.ErrUserNotFound, "email = ?", normalizeEmail(email))
}

// GetUserByPhone retrieves a user by phone number
func (s *userService) GetUserByPhone(phoneNumber string) (*models.User, error) {
	return s.findUser(apperrors.ErrPhoneNotRegistered, "phone_number = ?", strings.TrimSpace(phoneNumber))
}

func (s *userService) findUser(notFound *apperrors.AppError, query string, arg string) (*models.User, error) {
	var user models.User
	if err := s.db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin authenticates by email and password.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// ValidateCurrentPassword checks the current password during a reset. It
// never modifies the stored hash.
func (s *userService) ValidateCurrentPassword(email, currentPassword string) error {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, currentPassword) {
		return apperrors.ErrInvalidCurrentPassword
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (s *userService) UpdatePassword(email, newPassword string) (*models.User, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}
