package domain

import "time"

// Channel identity status values.
const (
	IdentityStatusActive  = "active"
	IdentityStatusBlocked = "blocked"
)

// AuthorizedUser is a whitelist row binding a phone number to an internal
// user/customer pairing. Only numbers present (and active) here may talk to
// the assistant over WhatsApp. Phone is stored digits-only.
type AuthorizedUser struct {
	ID         int64  `json:"id"          gorm:"primaryKey;autoIncrement"`
	CustomerID int64  `json:"customer_id" gorm:"not null;index"`
	Phone      string `json:"phone"       gorm:"type:varchar(32);not null;index"`
	Role       string `json:"role"        gorm:"type:varchar(32)"`
	Active     bool   `json:"active"      gorm:"not null;default:true"`
}

// TableName returns the database table name for AuthorizedUser.
func (AuthorizedUser) TableName() string { return "authorized_users" }

// ChannelIdentity tracks the binding between a WhatsApp address (digits-only
// phone) and an internal user/customer, independent of any dialogue session.
// VerifiedAt is refreshed only by a successful OTP validation; its age drives
// the re-verification gate.
type ChannelIdentity struct {
	WaID       string     `json:"wa_id"       gorm:"type:varchar(32);primaryKey"`
	UserID     int64      `json:"user_id"     gorm:"not null"`
	CustomerID int64      `json:"customer_id" gorm:"not null"`
	VerifiedAt *time.Time `json:"verified_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	Status     string     `json:"status"      gorm:"type:varchar(16);not null;default:'active'"`
}

// TableName returns the database table name for ChannelIdentity.
func (ChannelIdentity) TableName() string { return "channel_identities" }

// OneTimeCode is a verification code issued to a WhatsApp address. Only the
// salted hash is stored; the most recently issued row per address is the
// authoritative one. UsedAt marks single-use consumption and Attempts caps
// brute-force retries.
type OneTimeCode struct {
	ID        int64      `json:"id"         gorm:"primaryKey;autoIncrement"`
	WaID      string     `json:"wa_id"      gorm:"type:varchar(32);not null;index:idx_otp_wa_id"`
	CodeHash  string     `json:"-"          gorm:"type:varchar(128);not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Attempts  int        `json:"attempts"   gorm:"not null;default:0"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName returns the database table name for OneTimeCode.
func (OneTimeCode) TableName() string { return "one_time_codes" }

// ProcessedMessage records an upstream message id that has already been
// handled. The primary key doubles as the uniqueness constraint backing the
// at-most-once dedupe insert: the first INSERT wins, every later one fails.
type ProcessedMessage struct {
	MessageID string    `json:"message_id" gorm:"type:varchar(128);primaryKey"`
	WaID      string    `json:"wa_id"      gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ProcessedMessage.
func (ProcessedMessage) TableName() string { return "processed_messages" }
