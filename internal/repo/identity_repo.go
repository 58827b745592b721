// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file persists the WhatsApp channel records: the
// phone whitelist, the channel identity (with its verification timestamp),
// and the one-time verification codes.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

// ErrAmbiguousIdentity indicates that one phone number maps to more than
// one active whitelist row. This is a terminal condition for the gate and
// is never auto-resolved.
var ErrAmbiguousIdentity = errors.New("phone maps to multiple customers")

// FindAuthorizedUser resolves a digits-only WhatsApp address to exactly one
// active whitelist row. Both the bare digits and the "+"-prefixed form are
// tried, since operators store numbers inconsistently. Zero matches yield
// ErrNotFound; more than one yields ErrAmbiguousIdentity.
func FindAuthorizedUser(ctx context.Context, db *gorm.DB, waID string) (*domain.AuthorizedUser, error) {
	var rows []domain.AuthorizedUser
	err := db.WithContext(ctx).
		Where("phone IN ? AND active = ?", []string{waID, "+" + waID}, true).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, ErrAmbiguousIdentity
	}
}

// GetChannelIdentity fetches the identity record for a WhatsApp address,
// returning ErrNotFound when the address was never seen.
func GetChannelIdentity(ctx context.Context, db *gorm.DB, waID string) (*domain.ChannelIdentity, error) {
	var id domain.ChannelIdentity
	if err := db.WithContext(ctx).Where("wa_id = ?", waID).First(&id).Error; err != nil {
		return nil, err
	}
	return &id, nil
}

// UpsertChannelIdentity links a WhatsApp address to a user/customer pairing
// and refreshes its last-seen timestamp, marking the record active. An
// existing VerifiedAt is preserved.
func UpsertChannelIdentity(ctx context.Context, db *gorm.DB, waID string, userID, customerID int64, now time.Time) error {
	rec := domain.ChannelIdentity{
		WaID:       waID,
		UserID:     userID,
		CustomerID: customerID,
		LastSeenAt: now,
		Status:     domain.IdentityStatusActive,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wa_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "customer_id", "last_seen_at", "status"}),
		}).
		Create(&rec).Error
}

// MarkIdentityVerified refreshes the verification timestamp after a
// successful OTP validation.
func MarkIdentityVerified(ctx context.Context, db *gorm.DB, waID string, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.ChannelIdentity{}).
		Where("wa_id = ?", waID).
		Updates(map[string]any{
			"verified_at":  now,
			"last_seen_at": now,
			"status":       domain.IdentityStatusActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateOneTimeCode stores the salted hash of a freshly issued code.
func CreateOneTimeCode(ctx context.Context, db *gorm.DB, waID, codeHash string, expiresAt time.Time) (*domain.OneTimeCode, error) {
	rec := &domain.OneTimeCode{
		WaID:      waID,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// LatestOneTimeCode returns the most recently issued code row for an
// address; only this row is ever trusted for validation.
func LatestOneTimeCode(ctx context.Context, db *gorm.DB, waID string) (*domain.OneTimeCode, error) {
	var rec domain.OneTimeCode
	err := db.WithContext(ctx).
		Where("wa_id = ?", waID).
		Order("id desc").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// IncrementOTPAttempts charges one validation attempt against a code row,
// regardless of the validation outcome.
func IncrementOTPAttempts(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Model(&domain.OneTimeCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// ConsumeOneTimeCode marks a code used. The guarded WHERE makes consumption
// single-winner under concurrency: the statement only succeeds while
// used_at is still NULL, so a second concurrent validator of the same code
// observes ErrDuplicate and must fail the attempt.
func ConsumeOneTimeCode(ctx context.Context, db *gorm.DB, id int64, now time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.OneTimeCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}
