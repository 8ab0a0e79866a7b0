package admin

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// GetAllOrders liste les commandes, éventuellement filtrées par statut
func GetAllOrders(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !models.IsValidOrderStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT order_id, order_number, user_id, payment_method, subtotal, discount, total,
		       delivery_name, status, source, created_at
		FROM orders`).Iter()

	var orders []models.Order
	var o models.Order

	for iter.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.PaymentMethod, &o.Subtotal,
		&o.Discount, &o.Total, &o.DeliveryName, &o.Status, &o.Source, &o.CreatedAt) {
		if status == "" || o.Status == status {
			orders = append(orders, o)
		}
		o = models.Order{}
	}

	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus fait avancer une commande dans son cycle de vie.
// Seules les transitions du graphe de statuts sont acceptées.
func UpdateOrderStatus(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if !models.IsValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut inconnu"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var order models.Order
	err = session.Query(`
		SELECT order_id, order_number, user_id, status, total, delivery_name, delivery_email
		FROM orders WHERE order_id = ?`, orderID).
		Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status,
			&order.Total, &order.DeliveryName, &order.DeliveryEmail)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commande"})
		return
	}

	if !models.CanTransitionOrder(order.Status, req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Transition de statut non autorisée",
			"current_status": order.Status,
		})
		return
	}

	// CAS sur le statut lu : deux admins concurrents ne peuvent pas appliquer
	// deux transitions depuis le même état
	var prevStatus string
	applied, err := session.Query(`
		UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`,
		req.Status, time.Now(), orderID, order.Status).ScanCAS(&prevStatus)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Le statut a changé entre-temps",
			"current_status": prevStatus,
		})
		return
	}

	log.Printf("📋 Commande %s: %s → %s", order.OrderNumber, order.Status, req.Status)

	if order.DeliveryEmail != "" {
		newStatus := req.Status
		go func() {
			if err := utils.SendOrderStatusEmail(order, order.DeliveryEmail, newStatus); err != nil {
				log.Printf("⚠️ Erreur envoi email statut %s: %v", order.OrderNumber, err)
			}
		}()
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Statut mis à jour",
		"order_number": order.OrderNumber,
		"status":       req.Status,
	})
}
