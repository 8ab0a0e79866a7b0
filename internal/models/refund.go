package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Refund struct {
	ID             gocql.UUID `json:"id"`
	OrderID        gocql.UUID `json:"order_id"`
	UserID         string     `json:"user_id"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"` // pending, approved, rejected, completed
	AdminNote      string     `json:"admin_note,omitempty"`
	RefundAmount   float64    `json:"refund_amount"`
	StripeRefundID string     `json:"stripe_refund_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
