package product

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/services"
)

// UploadProductImage - Uploader une image et la rattacher au produit (admin)
func UploadProductImage(c *gin.Context) {
	productIDStr := c.Param("id")

	productID, err := gocql.ParseUUID(productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier manquant"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var existingURLs []string
	err = session.Query(`SELECT image_urls FROM products WHERE product_id = ?`,
		productID).Scan(&existingURLs)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération produit"})
		return
	}

	imageURL, err := services.UploadFile("products", fileHeader)
	if err != nil {
		log.Printf("❌ Erreur upload MinIO: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload image"})
		return
	}

	existingURLs = append(existingURLs, imageURL)
	err = session.Query(`UPDATE products SET image_urls = ?, updated_at = ? WHERE product_id = ?`,
		existingURLs, time.Now(), productID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	cache.InvalidateProduct(productIDStr)
	invalidateProductListCache()

	log.Printf("🖼️ Image ajoutée au produit %s: %s", productID, imageURL)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Image uploadée avec succès",
		"image_url": imageURL,
	})
}

// GetProductImages - Lister les images d'un produit
func GetProductImages(c *gin.Context) {
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

	var imageURLs []string
	err = session.Query(`SELECT image_urls FROM products WHERE product_id = ?`,
		productID).Scan(&imageURLs)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productIDStr,
		"images":     imageURLs,
	})
}

// DeleteProductImage - Retirer une image d'un produit (admin)
func DeleteProductImage(c *gin.Context) {
	productIDStr := c.Param("id")

	productID, err := gocql.ParseUUID(productIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var req struct {
		ImageURL string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var currentURLs []string
	err = session.Query(`SELECT image_urls FROM products WHERE product_id = ?`,
		productID).Scan(&currentURLs)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	filteredURLs := []string{}
	for _, url := range currentURLs {
		if url != req.ImageURL {
			filteredURLs = append(filteredURLs, url)
		}
	}

	err = session.Query(`UPDATE products SET image_urls = ?, updated_at = ? WHERE product_id = ?`,
		filteredURLs, time.Now(), productID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}

	cache.InvalidateProduct(productIDStr)
	invalidateProductListCache()

	c.JSON(http.StatusOK, gin.H{
		"message":    "Image supprimée avec succès",
		"product_id": productIDStr,
		"image_url":  req.ImageURL,
	})
}
