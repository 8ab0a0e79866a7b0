package product

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// UpdateStock - Réapprovisionner ou corriger le stock d'un produit (admin).
// "restock" ajoute la quantité, "adjustment" fixe le stock à la valeur donnée.
func UpdateStock(c *gin.Context) {
	productIDStr := c.Param("id")

	var req struct {
		Quantity int    `json:"quantity" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
		Type     string `json:"type" binding:"required"` // "restock", "adjustment"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
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

	var currentStock int
	var productName string
	if err := session.Query(`SELECT stock, name FROM products WHERE product_id = ?`,
		productID).Scan(&currentStock, &productName); err != nil {
		log.Printf("❌ Produit non trouvé: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit non trouvé"})
		return
	}

	var newStock int
	switch req.Type {
	case "restock":
		newStock = currentStock + req.Quantity
	case "adjustment":
		newStock = req.Quantity // Quantité absolue
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type d'opération invalide"})
		return
	}

	if newStock < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le stock ne peut pas être négatif"})
		return
	}

	userID := c.GetString("user_id")

	// CAS sur la valeur lue : un checkout concurrent ne doit pas être écrasé
	applied, err := session.Query(
		`UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`,
		newStock, time.Now(), productID, currentStock).ScanCAS(&currentStock)
	if err != nil {
		log.Printf("❌ Erreur mise à jour stock: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la mise à jour du stock"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Le stock a changé entre-temps, réessayez"})
		return
	}

	movement := models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		PrevStock: currentStock,
		NewStock:  newStock,
		Reason:    req.Reason,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := session.Query(`
		INSERT INTO stock_movements (id, product_id, type, quantity, prev_stock, new_stock, reason, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.ProductID, movement.Type, movement.Quantity,
		movement.PrevStock, movement.NewStock, movement.Reason, movement.UserID,
		movement.CreatedAt,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
	}

	cache.InvalidateProduct(productIDStr)
	checkLowStockAlert(productID, productName, newStock)

	log.Printf("✅ Stock mis à jour pour %s: %d -> %d", productName, currentStock, newStock)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Stock mis à jour avec succès",
		"prev_stock":  currentStock,
		"new_stock":   newStock,
		"movement_id": movement.ID,
	})
}

// GetStockMovements - Historique des mouvements de stock (admin)
func GetStockMovements(c *gin.Context) {
	productIDStr := c.Query("product_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit > 100 {
		limit = 100
	}

	var query string
	var args []interface{}

	if productIDStr != "" {
		productID, err := gocql.ParseUUID(productIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
			return
		}
		query = `SELECT id, product_id, variant_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
				 FROM stock_movements WHERE product_id = ? LIMIT ? ALLOW FILTERING`
		args = []interface{}{productID, limit}
	} else {
		query = `SELECT id, product_id, variant_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
				 FROM stock_movements LIMIT ?`
		args = []interface{}{limit}
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(query, args...).Iter()

	var movements []models.StockMovement
	var m models.StockMovement

	for iter.Scan(&m.ID, &m.ProductID, &m.VariantID, &m.Type, &m.Quantity,
		&m.PrevStock, &m.NewStock, &m.Reason, &m.OrderID, &m.UserID, &m.CreatedAt) {
		movements = append(movements, m)
		m = models.StockMovement{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération mouvements: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movements": movements,
		"total":     len(movements),
	})
}

// GetLowStockAlerts - Alertes de stock faible non résolues (admin)
func GetLowStockAlerts(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT id, product_id, product_name, current_stock, threshold_stock, alert_type, is_resolved, created_at
		FROM stock_alerts WHERE is_resolved = false ALLOW FILTERING`).Iter()

	var alerts []models.StockAlert
	var alert models.StockAlert

	for iter.Scan(&alert.ID, &alert.ProductID, &alert.ProductName, &alert.CurrentStock,
		&alert.ThresholdStock, &alert.AlertType, &alert.IsResolved, &alert.CreatedAt) {
		alerts = append(alerts, alert)
		alert = models.StockAlert{}
	}

	if err := iter.Close(); err != nil {
		log.Printf("❌ Erreur récupération alertes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}

// ResolveStockAlert - Marquer une alerte comme résolue (admin)
func ResolveStockAlert(c *gin.Context) {
	alertID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID alerte invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query(`UPDATE stock_alerts SET is_resolved = true, resolved_at = ? WHERE id = ?`,
		time.Now(), alertID).Exec()
	if err != nil {
		log.Printf("❌ Erreur résolution alerte: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la résolution"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alerte marquée comme résolue"})
}

// checkLowStockAlert crée une alerte si le stock passe sous le seuil du produit.
// Une seule alerte ouverte par produit.
func checkLowStockAlert(productID gocql.UUID, productName string, currentStock int) {
	session, err := database.GetProductsSession()
	if err != nil {
		return
	}

	var threshold int
	if err := session.Query(`SELECT low_stock_threshold FROM products WHERE product_id = ?`,
		productID).Scan(&threshold); err != nil {
		return
	}
	if threshold == 0 {
		threshold = 10 // Seuil par défaut
	}

	var alertType string
	switch {
	case currentStock == 0:
		alertType = "out_of_stock"
	case currentStock <= threshold:
		alertType = "low_stock"
	default:
		return
	}

	// Alerte ouverte déjà existante ?
	var existingAlertID gocql.UUID
	if err := session.Query(`
		SELECT id FROM stock_alerts WHERE product_id = ? AND is_resolved = false LIMIT 1 ALLOW FILTERING`,
		productID).Scan(&existingAlertID); err == nil {
		return
	}

	alert := models.StockAlert{
		ID:             gocql.TimeUUID(),
		ProductID:      productID,
		ProductName:    productName,
		CurrentStock:   currentStock,
		ThresholdStock: threshold,
		AlertType:      alertType,
		IsResolved:     false,
		CreatedAt:      time.Now(),
	}

	if err := session.Query(`
		INSERT INTO stock_alerts (id, product_id, product_name, current_stock, threshold_stock, alert_type, is_resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.ProductID, alert.ProductName, alert.CurrentStock,
		alert.ThresholdStock, alert.AlertType, alert.IsResolved, alert.CreatedAt,
	).Exec(); err != nil {
		log.Printf("⚠️ Erreur création alerte stock: %v", err)
	} else {
		log.Printf("🚨 Alerte stock créée pour %s: %s", productName, alertType)
	}
}
