package otp

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fintrack/internal/models"
)

// GormStore keeps OTP records in the otp_codes table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore on db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Put(ctx context.Context, rec Record) error {
	row := models.OTPCode{
		Email:     rec.Email,
		Hash:      rec.Hash,
		ExpiresAt: rec.ExpiresAt.UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"hash", "expires_at", "attempts", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormStore) Get(ctx context.Context, email string) (*Record, error) {
	var row models.OTPCode
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Record{Email: row.Email, Hash: row.Hash, ExpiresAt: row.ExpiresAt, Attempts: row.Attempts}, nil
}

func (s *GormStore) Delete(ctx context.Context, email string) error {
	return s.db.WithContext(ctx).Where("email = ?", email).Delete(&models.OTPCode{}).Error
}

func (s *GormStore) RecordFailure(ctx context.Context, email string) (int, error) {
	var attempts int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OTPCode{}).
			Where("email = ?", email).
			Update("attempts", gorm.Expr("attempts + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.OTPCode{}).
			Where("email = ?", email).
			Pluck("attempts", &attempts).Error
	})
	return attempts, err
}

// DeleteExpired removes rows whose expiry is at or before now.
func (s *GormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.OTPCode{})
	return result.RowsAffected, result.Error
}
