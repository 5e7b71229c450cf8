package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

// --- mock user service ---

type mockUserService struct {
	createUserFn              func(input services.NewUserInput) (*models.User, error)
	getUserByEmailFn          func(email string) (*models.User, error)
	getUserByPhoneFn          func(phoneNumber string) (*models.User, error)
	attemptLoginFn            func(email, password string) (*models.User, error)
	validateCurrentPasswordFn func(email, currentPassword string) error
	updatePasswordFn          func(email, newPassword string) (*models.User, error)
}

func (m *mockUserService) CreateUser(input services.NewUserInput) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(input)
	}
	return testUser(), nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return testUser(), nil
}

func (m *mockUserService) GetUserByPhone(phoneNumber string) (*models.User, error) {
	if m.getUserByPhoneFn != nil {
		return m.getUserByPhoneFn(phoneNumber)
	}
	return testUser(), nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, password string) bool {
	return password == "password123"
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return testUser(), nil
}

func (m *mockUserService) ValidateCurrentPassword(email, currentPassword string) error {
	if m.validateCurrentPasswordFn != nil {
		return m.validateCurrentPasswordFn(email, currentPassword)
	}
	return nil
}

func (m *mockUserService) UpdatePassword(email, newPassword string) (*models.User, error) {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(email, newPassword)
	}
	return testUser(), nil
}

var _ services.UserServicer = (*mockUserService)(nil)

// --- mock OTP service ---

type mockOTPService struct {
	requestOTPFn func(ctx context.Context, email string) error
	verifyOTPFn  func(ctx context.Context, email, code string) (*models.User, error)
}

func (m *mockOTPService) RequestOTP(ctx context.Context, email string) error {
	if m.requestOTPFn != nil {
		return m.requestOTPFn(ctx, email)
	}
	return nil
}

func (m *mockOTPService) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	if m.verifyOTPFn != nil {
		return m.verifyOTPFn(ctx, email, code)
	}
	return testUser(), nil
}

var _ services.OTPServicer = (*mockOTPService)(nil)

// --- mock audit service ---

type auditEntry struct {
	userID, action, resourceID string
	changes                    map[string]interface{}
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, _, resourceID, _ string, changes map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID: userID, action: action, resourceID: resourceID, changes: changes})
}

// --- test helpers ---

const testUserID = "0190a5a0-0000-7000-8000-000000000001"

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testUser() *models.User {
	return &models.User{
		Base:        models.Base{ID: testUserID},
		Username:    "jdoe",
		Email:       "jdoe@example.com",
		PhoneNumber: "+15551234567",
		FirstName:   "John",
		LastName:    "Doe",
		Password:    "$2a$10$hash",
	}
}

func testTokens() *middleware.TokenManager {
	return middleware.NewTokenManager("test-secret", time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/validate-phone", handler.ValidatePhone)
	r.POST("/auth/validate-password", handler.ValidatePassword)
	r.POST("/auth/update-password", handler.UpdatePassword)
	r.POST("/auth/request-otp", handler.RequestOTP)
	r.POST("/auth/verify-otp", handler.VerifyOTP)
	return r
}

func injectUser(id, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Set(middleware.ContextEmail, email)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if _, ok := result["error"].(string); !ok {
		t.Fatalf("expected error message in response, got: %v", result)
	}
	if result["code"] != code {
		t.Errorf("expected error code %q, got %q", code, result["code"])
	}
}

// --- tests ---

func TestAuthHandler_Register(t *testing.T) {
	const validBody = `{"username":"jdoe","email":"jdoe@example.com","password":"secret1","firstName":"John","lastName":"Doe","phoneNumber":"+15551234567"}`

	t.Run("returns 201 without a token", func(t *testing.T) {
		var got services.NewUserInput
		userSvc := &mockUserService{
			createUserFn: func(input services.NewUserInput) (*models.User, error) {
				got = input
				return testUser(), nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/register", validBody)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if _, ok := result["token"]; ok {
			t.Error("registration must not issue a token")
		}
		if result["message"] != "User registered" {
			t.Errorf("unexpected message: %v", result["message"])
		}
		if got.Username != "jdoe" || got.PhoneNumber != "+15551234567" || got.Password != "secret1" {
			t.Errorf("unexpected service input: %+v", got)
		}
	})

	t.Run("returns 400 on duplicate phone", func(t *testing.T) {
		userSvc := &mockUserService{
			createUserFn: func(services.NewUserInput) (*models.User, error) {
				return nil, apperrors.ErrDuplicatePhoneNumber
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/register", validBody)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "DUPLICATE_PHONE_NUMBER")
		if result["error"] != "Phone number is already registered." {
			t.Errorf("unexpected error message: %v", result["error"])
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing username", `{"email":"a@b.co","password":"secret1","phoneNumber":"+15551234567"}`},
		{"bad email", `{"username":"a","email":"nope","password":"secret1","phoneNumber":"+15551234567"}`},
		{"short password", `{"username":"a","email":"a@b.co","password":"12345","phoneNumber":"+15551234567"}`},
		{"bad phone", `{"username":"a","email":"a@b.co","password":"secret1","phoneNumber":"call me"}`},
		{"malformed json", `{"username":`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, &mockAuditService{}, testTokens()))

			rec := doRequest(r, http.MethodPost, "/auth/register", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("password login returns token with user", func(t *testing.T) {
		tokens := testTokens()
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, &mockAuditService{}, tokens))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"jdoe@example.com","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["token"].(string)
		claims, err := tokens.Verify(token)
		if err != nil {
			t.Fatalf("returned token does not verify: %v", err)
		}
		if claims.UserID != testUserID || claims.Email != "jdoe@example.com" {
			t.Errorf("unexpected claims: %+v", claims)
		}
		user := result["user"].(map[string]interface{})
		if user["phoneNumber"] != "+15551234567" {
			t.Errorf("unexpected user: %v", user)
		}
		if _, leaked := user["password"]; leaked {
			t.Error("password must not be returned")
		}
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(string, string) (*models.User, error) { return nil, apperrors.ErrInvalidCredentials },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"jdoe@example.com","password":"nope"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("unknown email returns 404", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(string, string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"ghost@example.com","password":"x"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})

	t.Run("phone login issues same-shape token", func(t *testing.T) {
		var lookedUp string
		userSvc := &mockUserService{
			getUserByPhoneFn: func(phone string) (*models.User, error) {
				lookedUp = phone
				return testUser(), nil
			},
			attemptLoginFn: func(string, string) (*models.User, error) {
				t.Error("password path must not run for phone login")
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"phoneNumber":"+15551234567"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if lookedUp != "+15551234567" {
			t.Errorf("looked up %q", lookedUp)
		}
		result := parseJSON(t, rec)
		if result["token"] == "" || result["user"] == nil {
			t.Errorf("expected token and user, got %v", result)
		}
	})

	t.Run("unregistered phone returns 404", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByPhoneFn: func(string) (*models.User, error) { return nil, apperrors.ErrPhoneNotRegistered },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"phoneNumber":"+10000000000"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PHONE_NOT_REGISTERED")
	})

	t.Run("neither credential returns 400", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, &mockAuditService{}, testTokens()))

		for _, body := range []string{`{}`, `{"email":"jdoe@example.com"}`, `{"password":"x"}`} {
			rec := doRequest(r, http.MethodPost, "/auth/login", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("%s: expected 400, got %d", body, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		}
	})
}

func TestAuthHandler_ValidatePhone(t *testing.T) {
	t.Run("returns user projection", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/validate-phone", `{"phoneNumber":"+15551234567"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID || user["username"] != "jdoe" {
			t.Errorf("unexpected user: %v", user)
		}
		if _, leaked := user["password"]; leaked {
			t.Error("password must not be returned")
		}
	})

	t.Run("returns 404 when not registered", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByPhoneFn: func(string) (*models.User, error) { return nil, apperrors.ErrPhoneNotRegistered },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/validate-phone", `{"phoneNumber":"+10000000000"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "PHONE_NOT_REGISTERED")
		if result["error"] != "Phone number not registered." {
			t.Errorf("unexpected message: %v", result["error"])
		}
	})

	t.Run("returns 400 without phone number", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/validate-phone", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_ValidatePassword(t *testing.T) {
	t.Run("correct password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/validate-password", `{"email":"jdoe@example.com","currPassword":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["valid"] != true || result["message"] != "Password is correct." {
			t.Errorf("unexpected body: %v", result)
		}
	})

	t.Run("wrong password returns valid false", func(t *testing.T) {
		userSvc := &mockUserService{
			validateCurrentPasswordFn: func(string, string) error { return apperrors.ErrInvalidCurrentPassword },
			updatePasswordFn: func(string, string) (*models.User, error) {
				t.Error("validate-password must never update the password")
				return nil, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/validate-password", `{"email":"jdoe@example.com","currPassword":"nope"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["valid"] != false {
			t.Errorf("expected valid=false, got %v", result["valid"])
		}
		assertErrorCode(t, result, "INVALID_CURRENT_PASSWORD")
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		userSvc := &mockUserService{
			validateCurrentPasswordFn: func(string, string) error { return apperrors.ErrUserNotFound },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/validate-password", `{"email":"ghost@example.com","currPassword":"x"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "USER_NOT_FOUND")
	})
}

func TestAuthHandler_UpdatePassword(t *testing.T) {
	t.Run("updates and audits", func(t *testing.T) {
		var gotEmail, gotPassword string
		userSvc := &mockUserService{
			updatePasswordFn: func(email, newPassword string) (*models.User, error) {
				gotEmail, gotPassword = email, newPassword
				return testUser(), nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, audit, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/update-password", `{"email":"jdoe@example.com","newPassword":"rotated"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotEmail != "jdoe@example.com" || gotPassword != "rotated" {
			t.Errorf("unexpected arguments: %s %s", gotEmail, gotPassword)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionUpdatePassword {
			t.Errorf("expected one password audit entry, got %+v", audit.entries)
		}
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		userSvc := &mockUserService{
			updatePasswordFn: func(string, string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockOTPService{}, audit, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/update-password", `{"email":"ghost@example.com","newPassword":"rotated"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Error("failed updates must not be audited")
		}
	})
}

func TestAuthHandler_OTP(t *testing.T) {
	t.Run("request sends code", func(t *testing.T) {
		var requested string
		otpSvc := &mockOTPService{
			requestOTPFn: func(_ context.Context, email string) error {
				requested = email
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, otpSvc, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/request-otp", `{"email":"jdoe@example.com"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if requested != "jdoe@example.com" {
			t.Errorf("requested for %q", requested)
		}
	})

	t.Run("request for unknown user returns 404", func(t *testing.T) {
		otpSvc := &mockOTPService{
			requestOTPFn: func(context.Context, string) error { return apperrors.ErrUserNotFound },
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, otpSvc, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/request-otp", `{"email":"ghost@example.com"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("verify returns token", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockOTPService{}, audit, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/verify-otp", `{"email":"jdoe@example.com","otp":"123456"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if token, _ := parseJSON(t, rec)["token"].(string); token == "" {
			t.Error("expected a token")
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionOTPLogin {
			t.Errorf("expected one OTP login audit entry, got %+v", audit.entries)
		}
	})

	t.Run("verify with expired code returns 400", func(t *testing.T) {
		otpSvc := &mockOTPService{
			verifyOTPFn: func(context.Context, string, string) (*models.User, error) { return nil, apperrors.ErrOTPExpired },
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, otpSvc, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/verify-otp", `{"email":"jdoe@example.com","otp":"123456"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "OTP_EXPIRED")
	})

	t.Run("verify rejects malformed code", func(t *testing.T) {
		otpSvc := &mockOTPService{
			verifyOTPFn: func(context.Context, string, string) (*models.User, error) {
				t.Error("service must not be called for a malformed code")
				return nil, nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, otpSvc, &mockAuditService{}, testTokens()))

		rec := doRequest(r, http.MethodPost, "/auth/verify-otp", `{"email":"jdoe@example.com","otp":"12ab"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
