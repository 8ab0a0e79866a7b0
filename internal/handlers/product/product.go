package product

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"
)

const productColumns = `product_id, name, description, price, stock, category_id, image_urls, tags,
	has_variants, low_stock_threshold, is_active, created_at, updated_at`

const allProductsCacheKey = "products:all"

func scanProduct(scan func(...interface{}) error) (*models.Product, error) {
	var p models.Product
	var createdAt, updatedAt time.Time

	err := scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID,
		&p.ImageURLs, &p.Tags, &p.HasVariants, &p.LowStockThreshold, &p.IsActive,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = &createdAt
	p.UpdatedAt = &updatedAt
	return &p, nil
}

// invalidateProductListCache purge la liste globale après toute écriture produit
func invalidateProductListCache() {
	database.Redis.Del(context.Background(), allProductsCacheKey)
}

// CreateProduct crée un produit (admin)
func CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ 'name' est obligatoire"})
		return
	}
	if p.Price < 0 || p.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	p.ID = gocql.TimeUUID()
	p.IsActive = true
	now := time.Now()
	p.CreatedAt = &now
	p.UpdatedAt = &now
	if p.LowStockThreshold == 0 {
		p.LowStockThreshold = 10
	}

	query := `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if err := session.Query(query, p.ID, p.Name, p.Description, p.Price, p.Stock,
		p.CategoryID, p.ImageURLs, p.Tags, p.HasVariants, p.LowStockThreshold,
		p.IsActive, p.CreatedAt, p.UpdatedAt).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit: " + err.Error()})
		return
	}

	invalidateProductListCache()

	// 🔄 Indexation Elasticsearch
	go services.IndexProduct(p)

	log.Printf("📦 Produit créé: %s (%s)", p.Name, p.ID)
	c.JSON(http.StatusCreated, p)
}

// GetAllProducts liste les produits actifs, avec cache Redis
func GetAllProducts(c *gin.Context) {
	ctx := context.Background()

	if val, err := database.Redis.Get(ctx, allProductsCacheKey).Result(); err == nil && val != "" {
		var cached []models.Product
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT ` + productColumns + ` FROM products`).Iter()

	var products []models.Product
	var p models.Product
	var createdAt, updatedAt time.Time

	for iter.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID,
		&p.ImageURLs, &p.Tags, &p.HasVariants, &p.LowStockThreshold, &p.IsActive,
		&createdAt, &updatedAt) {
		if !p.IsActive {
			p = models.Product{}
			continue
		}
		created, updated := createdAt, updatedAt
		p.CreatedAt = &created
		p.UpdatedAt = &updated
		products = append(products, p)
		p = models.Product{} // Reset pour la prochaine itération
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produits: " + err.Error()})
		return
	}

	if data, err := json.Marshal(products); err == nil {
		database.Redis.Set(ctx, allProductsCacheKey, data, time.Hour)
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct récupère un produit par ID (cache Redis en lecture)
func GetProduct(c *gin.Context) {
	productID := c.Param("id")

	if _, err := gocql.ParseUUID(productID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	p, err := cache.GetProductFromCache(productID)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produit"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateProduct met à jour les champs modifiables d'un produit (admin).
// Le stock ne se modifie pas ici mais via les opérations d'inventaire.
func UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	productUUID, err := gocql.ParseUUID(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var req struct {
		Name              *string  `json:"name"`
		Description       *string  `json:"description"`
		Price             *float64 `json:"price"`
		Tags              []string `json:"tags"`
		LowStockThreshold *int     `json:"low_stock_threshold"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	existing, err := scanProduct(session.Query(
		`SELECT `+productColumns+` FROM products WHERE product_id = ?`, productUUID).Scan)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture produit"})
		return
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être positif"})
			return
		}
		existing.Price = *req.Price
	}
	if req.Tags != nil {
		existing.Tags = req.Tags
	}
	if req.LowStockThreshold != nil {
		existing.LowStockThreshold = *req.LowStockThreshold
	}

	err = session.Query(`
		UPDATE products SET name = ?, description = ?, price = ?, tags = ?,
			low_stock_threshold = ?, updated_at = ?
		WHERE product_id = ?`,
		existing.Name, existing.Description, existing.Price, existing.Tags,
		existing.LowStockThreshold, time.Now(), productUUID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	cache.InvalidateProduct(productID)
	invalidateProductListCache()
	go services.IndexProduct(*existing)

	c.JSON(http.StatusOK, existing)
}

// DeleteProduct désactive un produit (admin). Suppression logique : les
// commandes existantes gardent leur snapshot, le produit sort du catalogue.
func DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	productUUID, err := gocql.ParseUUID(productID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query(`UPDATE products SET is_active = false, updated_at = ? WHERE product_id = ?`,
		time.Now(), productUUID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur désactivation produit"})
		return
	}

	cache.InvalidateProduct(productID)
	invalidateProductListCache()
	go services.RemoveProductFromIndex(productID)

	log.Printf("🗑️ Produit désactivé: %s", productID)
	c.JSON(http.StatusOK, gin.H{"message": "Produit désactivé"})
}

// SearchProducts interroge Elasticsearch
func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}

	results, err := services.SearchProducts(query)
	if err != nil {
		log.Printf("❌ Erreur recherche Elasticsearch: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur recherche"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}
