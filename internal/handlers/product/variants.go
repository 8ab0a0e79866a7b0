package product

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// CreateProductVariant - Créer une variante de produit (admin)
func CreateProductVariant(c *gin.Context) {
	productIDStr := c.Param("id")

	var req struct {
		SKU        string            `json:"sku" binding:"required"`
		Price      float64           `json:"price" binding:"required"`
		Stock      int               `json:"stock"`
		Attributes map[string]string `json:"attributes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}
	if req.Price < 0 || req.Stock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prix et stock doivent être positifs"})
		return
	}

	productID, err := gocql.ParseUUID(productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var tempProductID gocql.UUID
	if err := session.Query(`SELECT product_id FROM products WHERE product_id = ?`,
		productID).Scan(&tempProductID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		return
	}

	// Unicité du SKU
	var existingSKU string
	if err := session.Query(`SELECT sku FROM product_variants WHERE sku = ? LIMIT 1 ALLOW FILTERING`,
		req.SKU).Scan(&existingSKU); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Ce SKU existe déjà"})
		return
	}

	variant := models.ProductVariant{
		ID:         gocql.TimeUUID(),
		ProductID:  productID,
		SKU:        req.SKU,
		Price:      req.Price,
		Stock:      req.Stock,
		Attributes: req.Attributes,
		IsActive:   true,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	insertQuery := `
		INSERT INTO product_variants (
			id, product_id, sku, price, stock, attributes, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if err := session.Query(insertQuery,
		variant.ID, variant.ProductID, variant.SKU, variant.Price, variant.Stock,
		variant.Attributes, variant.IsActive, variant.CreatedAt, variant.UpdatedAt,
	).Exec(); err != nil {
		log.Printf("❌ Erreur création variante: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la création de la variante"})
		return
	}

	// Marquer le produit comme ayant des variantes
	if err := session.Query(`UPDATE products SET has_variants = true, updated_at = ? WHERE product_id = ?`,
		time.Now(), productID).Exec(); err != nil {
		log.Printf("⚠️ Erreur mise à jour has_variants: %v", err)
	}
	cache.InvalidateProduct(productIDStr)

	log.Printf("✅ Variante créée: %s pour produit %s", variant.SKU, productID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Variante créée avec succès",
		"variant": variant,
	})
}

// GetProductVariants - Récupérer les variantes actives d'un produit
func GetProductVariants(c *gin.Context) {
	productIDStr := c.Param("id")

	productID, err := gocql.ParseUUID(productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT id, product_id, sku, price, stock, attributes, is_active, created_at, updated_at
		FROM product_variants WHERE product_id = ? ALLOW FILTERING`, productID).Iter()

	var variants []models.ProductVariant
	var v models.ProductVariant

	for iter.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Stock, &v.Attributes,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt) {
		if v.IsActive {
			variants = append(variants, v)
		}
		v = models.ProductVariant{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture variantes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"variants": variants,
		"total":    len(variants),
	})
}

// UpdateProductVariant - Mettre à jour prix ou attributs d'une variante (admin)
func UpdateProductVariant(c *gin.Context) {
	variantIDStr := c.Param("variantId")

	variantID, err := gocql.ParseUUID(variantIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
		return
	}

	var req struct {
		Price      *float64          `json:"price"`
		Attributes map[string]string `json:"attributes"`
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

	var v models.ProductVariant
	err = session.Query(`
		SELECT id, product_id, price, attributes FROM product_variants WHERE id = ?`,
		variantID).Scan(&v.ID, &v.ProductID, &v.Price, &v.Attributes)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variante introuvable"})
		return
	}

	if req.Price != nil {
		if *req.Price < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Le prix doit être positif"})
			return
		}
		v.Price = *req.Price
	}
	if req.Attributes != nil {
		v.Attributes = req.Attributes
	}

	err = session.Query(`
		UPDATE product_variants SET price = ?, attributes = ?, updated_at = ? WHERE id = ?`,
		v.Price, v.Attributes, time.Now(), variantID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour variante"})
		return
	}

	cache.InvalidateProduct(v.ProductID.String())
	c.JSON(http.StatusOK, gin.H{"message": "Variante mise à jour"})
}

// DeleteProductVariant - Désactiver une variante (admin, suppression logique)
func DeleteProductVariant(c *gin.Context) {
	variantIDStr := c.Param("variantId")

	variantID, err := gocql.ParseUUID(variantIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var productID gocql.UUID
	if err := session.Query(`SELECT product_id FROM product_variants WHERE id = ?`,
		variantID).Scan(&productID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variante introuvable"})
		return
	}

	err = session.Query(`UPDATE product_variants SET is_active = false, updated_at = ? WHERE id = ?`,
		time.Now(), variantID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur désactivation variante"})
		return
	}

	cache.InvalidateProduct(productID.String())
	log.Printf("🗑️ Variante désactivée: %s", variantID)
	c.JSON(http.StatusOK, gin.H{"message": "Variante désactivée"})
}
