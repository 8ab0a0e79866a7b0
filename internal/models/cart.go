package models

type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

type CartItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"` // vide si le produit n'a pas de variantes
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// PurchasedRef identifie une paire (produit, variante) achetée lors d'un checkout.
type PurchasedRef struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
}
