// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file resolves raw customer references (email or CUIT
// in any separator style) to stable customer ids, creating a minimal
// placeholder row on first contact.
package repo

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

// ErrInvalidReference is returned when a customer reference is neither a
// plausible email address nor an 11-digit CUIT.
var ErrInvalidReference = errors.New("invalid customer reference")

var (
	emailRefRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	nonDigitRE = regexp.MustCompile(`\D`)
)

// IsEmailRef reports whether ref looks like an email address.
func IsEmailRef(ref string) bool {
	return emailRefRE.MatchString(strings.TrimSpace(ref))
}

// NormalizeTaxID strips separators from a CUIT and re-formats it as
// "NN-NNNNNNNN-N". The second return value is false when the digits do not
// form an 11-digit id.
func NormalizeTaxID(ref string) (string, bool) {
	digits := nonDigitRE.ReplaceAllString(ref, "")
	if len(digits) != 11 {
		return "", false
	}
	return digits[:2] + "-" + digits[2:10] + "-" + digits[10:], true
}

// ResolveCustomer maps a raw reference (email or CUIT) to a customer id,
// creating a minimal row when no match exists. Lookup order: exact
// lowercased email, then exact normalized CUIT.
//
// Concurrent first contact by the same reference is guarded by the unique
// indexes on email and tax id: when the insert loses the race it falls back
// to re-reading the winner's row, so every caller observes the same id.
// When several legacy rows share a reference, the most recently created one
// is authoritative.
func ResolveCustomer(ctx context.Context, db *gorm.DB, ref string) (int64, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return 0, ErrInvalidReference
	}

	if IsEmailRef(ref) {
		return resolveByColumn(ctx, db, "email", ref, domain.Customer{Email: &ref})
	}

	taxID, ok := NormalizeTaxID(ref)
	if !ok {
		return 0, ErrInvalidReference
	}
	return resolveByColumn(ctx, db, "tax_id", taxID, domain.Customer{TaxID: &taxID})
}

// resolveByColumn implements the shared find-or-create path for a uniquely
// indexed reference column.
func resolveByColumn(ctx context.Context, db *gorm.DB, column, value string, blank domain.Customer) (int64, error) {
	if id, err := findCustomerID(ctx, db, column, value); err == nil {
		return id, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	if err := db.WithContext(ctx).Create(&blank).Error; err != nil {
		if !isUniqueViolation(err) {
			return 0, err
		}
		// Lost the insert race: the winner's row exists now.
		return findCustomerID(ctx, db, column, value)
	}
	return blank.ID, nil
}

// findCustomerID fetches the newest customer id matching column = value.
func findCustomerID(ctx context.Context, db *gorm.DB, column, value string) (int64, error) {
	var c domain.Customer
	err := db.WithContext(ctx).
		Where(column+" = ?", value).
		Order("id desc").
		First(&c).Error
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

// GetCustomer fetches a customer by id, returning ErrNotFound when missing.
func GetCustomer(ctx context.Context, db *gorm.DB, id int64) (*domain.Customer, error) {
	var c domain.Customer
	if err := db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
