// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file fetches the pre-aggregated period summaries
// (VAT, sales, purchases, net result) keyed by customer id and period.
//
// Error semantics: a missing summary is first-class absence and surfaces as
// ErrNotFound; any other DB error propagates untouched.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

// GetVATSummary returns the VAT position for customer/period, or ErrNotFound.
func GetVATSummary(ctx context.Context, db *gorm.DB, customerID int64, period string) (*domain.VATSummary, error) {
	var s domain.VATSummary
	if err := byCustomerPeriod(ctx, db, customerID, period).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSalesSummary returns the sales figures for customer/period, or ErrNotFound.
func GetSalesSummary(ctx context.Context, db *gorm.DB, customerID int64, period string) (*domain.SalesSummary, error) {
	var s domain.SalesSummary
	if err := byCustomerPeriod(ctx, db, customerID, period).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetPurchasesSummary returns the purchases figures for customer/period, or ErrNotFound.
func GetPurchasesSummary(ctx context.Context, db *gorm.DB, customerID int64, period string) (*domain.PurchasesSummary, error) {
	var s domain.PurchasesSummary
	if err := byCustomerPeriod(ctx, db, customerID, period).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetResultSummary returns the net result for customer/period, or ErrNotFound.
func GetResultSummary(ctx context.Context, db *gorm.DB, customerID int64, period string) (*domain.ResultSummary, error) {
	var s domain.ResultSummary
	if err := byCustomerPeriod(ctx, db, customerID, period).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// byCustomerPeriod scopes a query to one customer and period.
func byCustomerPeriod(ctx context.Context, db *gorm.DB, customerID int64, period string) *gorm.DB {
	return db.WithContext(ctx).Where("customer_id = ? AND period = ?", customerID, period)
}
