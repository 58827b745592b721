// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file serves the fiscal-status and document queries.
package repo

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

// ListTaxAssignments returns the taxes assigned to a customer, ordered by
// tax name for a stable reply layout. An empty slice means the customer has
// no fiscal profile yet.
func ListTaxAssignments(ctx context.Context, db *gorm.DB, customerID int64) ([]domain.TaxAssignment, error) {
	var out []domain.TaxAssignment
	err := db.WithContext(ctx).
		Preload("Tax").
		Where("customer_id = ?", customerID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tax.Name < out[j].Tax.Name })
	return out, nil
}

// ListDocuments returns at most limit documents for a customer, newest
// first by document date, falling back to creation date for rows without one.
func ListDocuments(ctx context.Context, db *gorm.DB, customerID int64, limit int) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("COALESCE(document_date, created_at) DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
