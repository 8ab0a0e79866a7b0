package cache

import (
	"context"
	"encoding/json"
	"time"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const (
	ProductCacheTTL = 10 * time.Minute
)

// GetProductFromCache récupère un produit depuis Redis ou ScyllaDB
func GetProductFromCache(productID string) (*models.Product, error) {
	ctx := context.Background()
	key := "product:" + productID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var product models.Product
		if json.Unmarshal([]byte(data), &product) == nil {
			return &product, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, err
	}
	productUUID := gocql.UUID(pid)

	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var product models.Product
	var createdAt, updatedAt time.Time

	err = session.Query(database.CQLGetProductByID, productUUID).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price, &product.Stock,
		&product.CategoryID, &product.ImageURLs, &product.Tags, &product.HasVariants,
		&product.LowStockThreshold, &product.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = &createdAt
	product.UpdatedAt = &updatedAt

	// 3. Mettre en cache pour les prochaines lectures
	if jsonData, err := json.Marshal(product); err == nil {
		database.Redis.Set(ctx, key, jsonData, ProductCacheTTL)
	}

	return &product, nil
}

// InvalidateProduct supprime un produit du cache après modification
func InvalidateProduct(productID string) {
	database.Redis.Del(context.Background(), "product:"+productID)
}
