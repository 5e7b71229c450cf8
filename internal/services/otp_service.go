package services

import (
	"context"
	"errors"
	"time"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/notify"
	"fintrack/internal/otp"
)

// otpService issues e-mail one-time passwords and exchanges them for a user.
type otpService struct {
	users    UserServicer
	store    otp.Store
	notifier notify.Notifier
	ttl      time.Duration

	now      func() time.Time
	generate func() (string, error)
}

// NewOTPService creates a new OTPServicer. Codes are valid for ttl.
func NewOTPService(users UserServicer, store otp.Store, notifier notify.Notifier, ttl time.Duration) OTPServicer {
	return &otpService{
		users:    users,
		store:    store,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
		generate: otp.GenerateCode,
	}
}

// RequestOTP generates a code for a registered address, stores its hash
// and hands the plaintext to the notifier. A new request replaces any
// code still pending for the address.
func (s *otpService) RequestOTP(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return err
	}

	code, err := s.generate()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	hash, err := otp.HashCode(code)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.store.Put(ctx, otp.Record{Email: user.Email, Hash: hash, ExpiresAt: expiresAt}); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.notifier.Deliver(ctx, notify.Delivery{
		Channel:     notify.ChannelEmail,
		Destination: user.Email,
		Code:        code,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		logger.Get().Errorw("failed to deliver OTP", "error", err, "user_id", user.ID)
		return apperrors.Wrap(apperrors.ErrOTPDelivery, err)
	}
	return nil
}

// VerifyOTP checks code against the pending record for email. The record
// is consumed on success, and discarded after otp.MaxAttempts wrong guesses.
func (s *otpService) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	email = normalizeEmail(email)

	rec, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return nil, apperrors.ErrOTPExpired
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if rec.Expired(s.now()) || rec.Exhausted() {
		s.discard(ctx, email)
		return nil, apperrors.ErrOTPExpired
	}
	if !rec.Matches(code) {
		attempts, err := s.store.RecordFailure(ctx, email)
		if err != nil && !errors.Is(err, otp.ErrNotFound) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if attempts >= otp.MaxAttempts {
			logger.Get().Warnw("OTP discarded after too many wrong guesses", "email", email)
			s.discard(ctx, email)
		}
		return nil, apperrors.ErrOTPInvalid
	}

	if err := s.store.Delete(ctx, email); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.users.GetUserByEmail(email)
}

func (s *otpService) discard(ctx context.Context, email string) {
	if err := s.store.Delete(ctx, email); err != nil {
		logger.Get().Warnw("failed to delete OTP", "error", err)
	}
}
