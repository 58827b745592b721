// Package services implements the business logic of the assistant: the
// dialogue engine that turns free text into structured accounting queries,
// the WhatsApp gateway that fronts it with identity verification, and the
// optional LLM fallback classifier.
//
// This file centralizes common service-level error values so that they can
// be consistently returned by service methods and checked by callers.
// Translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when an inbound message has no text.
	ErrEmptyMessage = errors.New("message is empty")
)
