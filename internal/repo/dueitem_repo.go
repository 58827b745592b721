// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file serves the due-item queries behind the
// "vencimientos" intent: the upcoming/this-month pending list and the
// recently-lapsed counter.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

// DueMode selects the date window for pending due items.
type DueMode string

const (
	// DueModeUpcoming lists pending items due today or later.
	DueModeUpcoming DueMode = "proximos"
	// DueModeCurrentMonth lists pending items inside the current calendar month.
	DueModeCurrentMonth DueMode = "mes_actual"
)

// ListPendingDueItems returns at most limit PENDIENTE due items for the
// customer, ordered by due date ascending, within the window selected by
// mode (evaluated against now).
func ListPendingDueItems(ctx context.Context, db *gorm.DB, customerID int64, mode DueMode, limit int, now time.Time) ([]domain.DueItem, error) {
	q := db.WithContext(ctx).
		Preload("Tax").
		Where("customer_id = ? AND status = ?", customerID, domain.DueStatusPending)

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if mode == DueModeCurrentMonth {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		q = q.Where("due_date >= ? AND due_date < ?", monthStart, monthStart.AddDate(0, 1, 0))
	} else {
		q = q.Where("due_date >= ?", startOfDay)
	}

	var out []domain.DueItem
	err := q.Order("due_date asc").Limit(limit).Find(&out).Error
	return out, err
}

// CountRecentlyLapsed counts VENCIDO items whose due date falls within the
// trailing window of the given number of days.
func CountRecentlyLapsed(ctx context.Context, db *gorm.DB, customerID int64, days int, now time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.DueItem{}).
		Where("customer_id = ? AND status = ? AND due_date >= ?",
			customerID, domain.DueStatusLapsed, now.AddDate(0, 0, -days)).
		Count(&total).Error
	return total, err
}
