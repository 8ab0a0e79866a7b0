package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Price             float64    `json:"price"`
	Stock             int        `json:"stock"`
	CategoryID        gocql.UUID `json:"category_id"`
	ImageURLs         []string   `json:"image_urls"`
	Tags              []string   `json:"tags"`
	HasVariants       bool       `json:"has_variants"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	IsActive          bool       `json:"is_active"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

type ProductVariant struct {
	ID         gocql.UUID        `json:"id"`
	ProductID  gocql.UUID        `json:"product_id"`
	SKU        string            `json:"sku"`
	Price      float64           `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes"` // {"taille": "L", "couleur": "rouge"}
	IsActive   bool              `json:"is_active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
