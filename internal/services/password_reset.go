package services

import (
	"context"
	"strings"

	apperrors "fintrack/internal/errors"
)

// ResetState is a step of the password reset flow.
type ResetState int

const (
	ResetCollectEmail ResetState = iota
	ResetChooseMethod
	ResetEnterPasswords
	ResetSuccess
)

func (s ResetState) String() string {
	switch s {
	case ResetCollectEmail:
		return "collect_email"
	case ResetChooseMethod:
		return "choose_method"
	case ResetEnterPasswords:
		return "enter_passwords"
	case ResetSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// ResetMethod is how the user proves ownership of the account.
type ResetMethod string

const (
	MethodCurrentPassword ResetMethod = "current_password"
	MethodEmailOTP        ResetMethod = "email_otp"
)

// PasswordReset walks one user through resetting a password:
//
//	CollectEmail -> ChooseMethod -> EnterPasswords -> Success
//
// A failed password submission stays in EnterPasswords. Cancel returns to
// CollectEmail from any state and forgets everything entered. A
// PasswordReset is not safe for concurrent use.
type PasswordReset struct {
	users UserServicer
	otps  OTPServicer

	state  ResetState
	email  string
	method ResetMethod
}

// NewPasswordReset starts a reset at CollectEmail.
func NewPasswordReset(users UserServicer, otps OTPServicer) *PasswordReset {
	return &PasswordReset{users: users, otps: otps}
}

// State returns the current step.
func (r *PasswordReset) State() ResetState { return r.state }

// Email returns the address collected in the first step.
func (r *PasswordReset) Email() string { return r.email }

// Method returns the chosen verification method.
func (r *PasswordReset) Method() ResetMethod { return r.method }

func (r *PasswordReset) expect(state ResetState) error {
	if r.state != state {
		return apperrors.WithMessage(apperrors.ErrResetOutOfOrder,
			"expected step "+state.String()+", at "+r.state.String())
	}
	return nil
}

// SubmitEmail records the account address.
func (r *PasswordReset) SubmitEmail(email string) error {
	if err := r.expect(ResetCollectEmail); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "a valid email is required")
	}
	r.email = email
	r.state = ResetChooseMethod
	return nil
}

// ChooseMethod selects the verification method. Choosing MethodEmailOTP
// sends a code to the collected address; if sending fails the flow stays
// at ChooseMethod.
func (r *PasswordReset) ChooseMethod(ctx context.Context, method ResetMethod) error {
	if err := r.expect(ResetChooseMethod); err != nil {
		return err
	}

	switch method {
	case MethodCurrentPassword:
	case MethodEmailOTP:
		if err := r.otps.RequestOTP(ctx, r.email); err != nil {
			return err
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported verification method")
	}

	r.method = method
	r.state = ResetEnterPasswords
	return nil
}

// SubmitPasswords verifies secret (the current password or the e-mailed
// code, per the chosen method) and stores newPassword. Any failure leaves
// the flow at EnterPasswords so the user can retry.
func (r *PasswordReset) SubmitPasswords(ctx context.Context, secret, newPassword, confirmPassword string) error {
	if err := r.expect(ResetEnterPasswords); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return apperrors.ErrPasswordMismatch
	}
	// Checked before the code is consumed.
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	switch r.method {
	case MethodCurrentPassword:
		if err := r.users.ValidateCurrentPassword(r.email, secret); err != nil {
			return err
		}
	case MethodEmailOTP:
		if _, err := r.otps.VerifyOTP(ctx, r.email, secret); err != nil {
			return err
		}
	}

	if _, err := r.users.UpdatePassword(r.email, newPassword); err != nil {
		return err
	}
	r.state = ResetSuccess
	return nil
}

// Back returns to the previous step, keeping what was entered so far.
func (r *PasswordReset) Back() error {
	switch r.state {
	case ResetChooseMethod:
		r.state = ResetCollectEmail
	case ResetEnterPasswords:
		r.method = ""
		r.state = ResetChooseMethod
	default:
		return apperrors.WithMessage(apperrors.ErrResetOutOfOrder, "cannot go back from "+r.state.String())
	}
	return nil
}

// Cancel abandons the flow and discards all entered state.
func (r *PasswordReset) Cancel() {
	r.state = ResetCollectEmail
	r.email = ""
	r.method = ""
}
