package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService  services.UserServicer
	otpService   services.OTPServicer
	auditService services.AuditServicer
	tokens       *middleware.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, otpService services.OTPServicer, auditService services.AuditServicer, tokens *middleware.TokenManager) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		otpService:   otpService,
		auditService: auditService,
		tokens:       tokens,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,max=50"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	FirstName   string `json:"firstName" binding:"max=100"`
	LastName    string `json:"lastName" binding:"max=100"`
	PhoneNumber string `json:"phoneNumber" binding:"required,phone_number"`
}

// LoginRequest carries either email and password, or a phone number whose
// ownership was already confirmed by the OTP provider.
type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

// PhoneRequest carries a phone number.
type PhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// ValidatePasswordRequest is the current-password check of a reset.
type ValidatePasswordRequest struct {
	Email        string `json:"email" binding:"required,email"`
	CurrPassword string `json:"currPassword" binding:"required"`
}

// UpdatePasswordRequest sets a new password.
type UpdatePasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=128"`
}

// RequestOTPRequest asks for a code to be e-mailed.
type RequestOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest submits an e-mailed code.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      models.UserProfile `json:"user"`
}

// UserEnvelope wraps a user profile.
type UserEnvelope struct {
	User models.UserProfile `json:"user"`
}

// PasswordCheckResponse is the result of validate-password.
type PasswordCheckResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user. No token is issued; the user logs in separately.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} MessageResponse "User registered"
// @Failure     400 {object} ErrorResponse "Invalid input or duplicate phone, email or username"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	_, err := h.userService.CreateUser(services.NewUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "User registered"})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate with email and password, or with a phone number after OTP confirmation.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Neither credential supplied"
// @Failure     401 {object} ErrorResponse "Invalid password"
// @Failure     404 {object} ErrorResponse "User or phone number not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var (
		user *models.User
		err  error
	)
	switch {
	case req.PhoneNumber != "":
		user, err = h.userService.GetUserByPhone(req.PhoneNumber)
	case req.Email != "" && req.Password != "":
		user, err = h.userService.AttemptLogin(req.Email, req.Password)
	default:
		err = apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid login credentials")
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.respondWithToken(c, user)
}

// ValidatePhone handles the first phase of OTP login
// @Summary     Check a phone number
// @Description Look up the account registered to a phone number before an OTP is sent to it.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body PhoneRequest true "Phone number"
// @Success     200 {object} UserEnvelope "Registered user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Phone number not registered"
// @Router      /auth/validate-phone [post]
func (h *AuthHandler) ValidatePhone(c *gin.Context) {
	var req PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.GetUserByPhone(req.PhoneNumber)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: user.Profile()})
}

// ValidatePassword checks the current password during a reset
// @Summary     Validate current password
// @Description Check a user's current password without changing it.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ValidatePasswordRequest true "Email and current password"
// @Success     200 {object} PasswordCheckResponse "Password is correct"
// @Failure     400 {object} PasswordCheckResponse "Password is incorrect"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/validate-password [post]
func (h *AuthHandler) ValidatePassword(c *gin.Context) {
	var req ValidatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	err := h.userService.ValidateCurrentPassword(req.Email, req.CurrPassword)
	if errors.Is(err, apperrors.ErrInvalidCurrentPassword) {
		appErr := apperrors.From(err)
		c.JSON(appErr.StatusCode, PasswordCheckResponse{
			Valid: false,
			Error: appErr.Message,
			Code:  appErr.Code,
		})
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PasswordCheckResponse{Valid: true, Message: "Password is correct."})
}

// UpdatePassword stores a new password
// @Summary     Update password
// @Description Replace a user's password. Used as the last step of a reset.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body UpdatePasswordRequest true "Email and new password"
// @Success     200 {object} MessageResponse "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/update-password [post]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.UpdatePassword(req.Email, req.NewPassword)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionUpdatePassword, "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully."})
}

// RequestOTP e-mails a one-time password
// @Summary     Request an OTP
// @Description Send a six-digit code to a registered e-mail address. The code expires after five minutes.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RequestOTPRequest true "Email"
// @Success     200 {object} MessageResponse "OTP sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Delivery failed"
// @Router      /auth/request-otp [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := h.otpService.RequestOTP(c.Request.Context(), req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "OTP sent successfully."})
}

// VerifyOTP exchanges a one-time password for a session token
// @Summary     Verify an OTP
// @Description Check an e-mailed code. On success the code is consumed and a session token is issued.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body VerifyOTPRequest true "Email and code"
// @Success     200 {object} AuthResponse "Code accepted"
// @Failure     400 {object} ErrorResponse "Code invalid or expired"
// @Router      /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.otpService.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditActionOTPLogin, "user", user.ID, c.ClientIP(), nil)
	h.respondWithToken(c, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, user *models.User) {
	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Profile(),
	})
}
