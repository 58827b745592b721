// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the at-most-once gate for inbound
// channel messages: recording an upstream message id is an atomic
// insert-if-absent, so concurrent redeliveries race on the primary key and
// exactly one caller proceeds.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/jpereyra/contabot-backend/internal/domain"
)

// MarkMessageProcessed records an upstream message id. The first successful
// insert wins; any later insert of the same id returns ErrDuplicate, which
// callers treat as "already handled, acknowledge and stop". There is
// deliberately no check-then-insert: the uniqueness constraint is the gate.
func MarkMessageProcessed(ctx context.Context, db *gorm.DB, messageID, waID string) error {
	rec := &domain.ProcessedMessage{
		MessageID: messageID,
		WaID:      waID,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
