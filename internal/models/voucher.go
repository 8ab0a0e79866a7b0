package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts d'une réclamation de bon
const (
	ClaimStatusClaimed = "claimed"
	ClaimStatusUsed    = "used"
)

type Voucher struct {
	ID        gocql.UUID `json:"id"`
	Code      string     `json:"code"`
	Type      string     `json:"type"` // "percentage" ou "fixed"
	Value     float64    `json:"value"`
	MinAmount float64    `json:"min_amount"`
	MaxAmount *float64   `json:"max_amount,omitempty"` // plafond de réduction pour les pourcentages
	MaxUses   int        `json:"max_uses"`
	UsedCount int        `json:"used_count"`
	StartsAt  time.Time  `json:"starts_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// VoucherClaim lie un utilisateur à un bon qu'il a réclamé.
// Machine à états : claimed → used, jamais l'inverse.
type VoucherClaim struct {
	UserID    string      `json:"user_id"`
	VoucherID gocql.UUID  `json:"voucher_id"`
	Status    string      `json:"status"`
	ClaimedAt time.Time   `json:"claimed_at"`
	UsedAt    *time.Time  `json:"used_at,omitempty"`
	OrderID   *gocql.UUID `json:"order_id,omitempty"`
}

type VoucherValidation struct {
	IsValid      bool    `json:"is_valid"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Discount     float64 `json:"discount"`
	Type         string  `json:"type"`
	Code         string  `json:"code"`
}
