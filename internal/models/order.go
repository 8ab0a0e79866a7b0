package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts possibles d'une commande
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipping  = "shipping"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// Origine d'un checkout
const (
	CheckoutSourceCart   = "cart"
	CheckoutSourceBuyNow = "buy_now"
)

type Order struct {
	ID              gocql.UUID  `json:"id"`
	OrderNumber     string      `json:"order_number"`
	UserID          string      `json:"user_id"`
	PaymentMethod   string      `json:"payment_method"` // "card" ou "cod"
	PaymentIntentID string      `json:"payment_intent_id,omitempty"`
	Subtotal        float64     `json:"subtotal"`
	Discount        float64     `json:"discount"`
	Total           float64     `json:"total"`
	VoucherID       *gocql.UUID `json:"voucher_id,omitempty"`
	DeliveryName    string      `json:"delivery_name"`
	DeliveryPhone   string      `json:"delivery_phone"`
	DeliveryEmail   string      `json:"delivery_email"`
	DeliveryAddress string      `json:"delivery_address"`
	Status          string      `json:"status"`
	Source          string      `json:"source"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem est un snapshot : le nom et le prix sont figés au moment de l'achat,
// indépendamment des modifications ultérieures du produit.
type OrderItem struct {
	OrderID   gocql.UUID  `json:"order_id"`
	ItemID    gocql.UUID  `json:"item_id"`
	ProductID gocql.UUID  `json:"product_id"`
	VariantID *gocql.UUID `json:"variant_id,omitempty"`
	Name      string      `json:"name"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
}

// orderTransitions définit les transitions de statut autorisées.
// Une commande n'est jamais supprimée, elle change seulement de statut.
var orderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipping, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipping:  {OrderStatusCompleted, OrderStatusRefunded},
	OrderStatusCompleted: {OrderStatusRefunded},
}

// CanTransitionOrder indique si le passage from → to est autorisé.
func CanTransitionOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsValidOrderStatus vérifie qu'un statut fait partie du domaine connu.
func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipping,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}
