package payement

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"

	"velora_back_end/internal/checkout"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// refundStore réutilise les écritures de stock du checkout pour la remise
// en rayon des articles remboursés
var refundStore = checkout.NewScyllaStore()

// RequestRefund permet à un utilisateur de demander un remboursement
func RequestRefund(c *gin.Context) {
	userID := c.GetString("user_id")
	orderID := c.Param("id")

	var req struct {
		Reason string `json:"reason" binding:"required,min=10,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	orderUUID, err := gocql.ParseUUID(orderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var orderUserID, status string
	var total float64
	err = session.Query(`
		SELECT user_id, status, total FROM orders WHERE order_id = ?`, orderUUID).
		Scan(&orderUserID, &status, &total)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if orderUserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	if !models.CanTransitionOrder(status, models.OrderStatusRefunded) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande n'est pas éligible au remboursement"})
		return
	}

	// Une seule demande ouverte par commande
	var existingID gocql.UUID
	var existingStatus string
	iter := session.Query(`
		SELECT id, status FROM refunds WHERE order_id = ? ALLOW FILTERING`, orderUUID).Iter()
	for iter.Scan(&existingID, &existingStatus) {
		if existingStatus == "pending" || existingStatus == "completed" {
			iter.Close()
			c.JSON(http.StatusConflict, gin.H{"error": "Une demande de remboursement existe déjà pour cette commande"})
			return
		}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	refundID := gocql.TimeUUID()
	now := time.Now()

	err = session.Query(`
		INSERT INTO refunds (id, order_id, user_id, reason, status, refund_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		refundID, orderUUID, userID, req.Reason, "pending", total, now).Exec()
	if err != nil {
		log.Printf("❌ Erreur création demande remboursement: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création demande"})
		return
	}

	log.Printf("💰 Demande de remboursement créée: %s pour commande %s", refundID, orderID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Demande de remboursement créée",
		"refund": models.Refund{
			ID:           refundID,
			OrderID:      orderUUID,
			UserID:       userID,
			Reason:       req.Reason,
			Status:       "pending",
			RefundAmount: total,
			CreatedAt:    now,
		},
	})
}

// restockRefundedOrder remet en stock chaque ligne de la commande remboursée
// et trace un mouvement "return" par ligne
func restockRefundedOrder(session *gocql.Session, orderID gocql.UUID, adminID string) {
	iter := session.Query(`
		SELECT product_id, variant_id, quantity FROM order_items WHERE order_id = ?`,
		orderID).Iter()

	var productID, variantID gocql.UUID
	var quantity int

	for iter.Scan(&productID, &variantID, &quantity) {
		// variant_id null se désérialise en UUID zéro
		variantStr := ""
		if variantID != (gocql.UUID{}) {
			variantStr = variantID.String()
		}
		if err := refundStore.RestoreStock(productID.String(), variantStr, quantity); err != nil {
			log.Printf("⚠️ Erreur remise en stock produit %s: %v", productID, err)
			continue
		}

		movement := models.StockMovement{
			ID:        gocql.TimeUUID(),
			ProductID: productID,
			Type:      "return",
			Quantity:  quantity,
			Reason:    "remboursement commande",
			OrderID:   &orderID,
			UserID:    adminID,
			CreatedAt: time.Now(),
		}
		if variantStr != "" {
			v := variantID
			movement.VariantID = &v
		}
		if err := refundStore.RecordStockMovement(&movement); err != nil {
			log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
		}
	}
	if err := iter.Close(); err != nil {
		log.Printf("⚠️ Erreur lecture lignes de commande %s: %v", orderID, err)
	}
}

// ProcessRefund traite une demande de remboursement (admin).
// Approbation : remboursement Stripe si la commande a été payée en ligne,
// remise en stock des articles, commande passée en refunded.
func ProcessRefund(c *gin.Context) {
	adminID := c.GetString("user_id")
	refundID := c.Param("refundId")

	var req struct {
		Action    string `json:"action" binding:"required"` // approve, reject
		AdminNote string `json:"admin_note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	if req.Action != "approve" && req.Action != "reject" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action invalide (approve ou reject)"})
		return
	}

	refundUUID, err := gocql.ParseUUID(refundID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID remboursement invalide"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var orderID gocql.UUID
	var refundAmount float64
	var refundStatus string
	err = session.Query(`
		SELECT order_id, refund_amount, status FROM refunds WHERE id = ?`, refundUUID).
		Scan(&orderID, &refundAmount, &refundStatus)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Demande de remboursement introuvable"})
		return
	}

	if refundStatus != "pending" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette demande a déjà été traitée"})
		return
	}

	now := time.Now()

	if req.Action == "reject" {
		err = session.Query(`
			UPDATE refunds SET status = ?, admin_note = ?, updated_at = ? WHERE id = ?`,
			"rejected", req.AdminNote, now, refundUUID).Exec()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour"})
			return
		}

		log.Printf("❌ Remboursement rejeté: %s", refundID)
		c.JSON(http.StatusOK, gin.H{
			"message": "Demande de remboursement rejetée",
			"status":  "rejected",
		})
		return
	}

	var order models.Order
	err = session.Query(`
		SELECT order_id, order_number, user_id, status, payment_intent_id, total,
		       delivery_name, delivery_email
		FROM orders WHERE order_id = ?`, orderID).
		Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status,
			&order.PaymentIntentID, &order.Total, &order.DeliveryName, &order.DeliveryEmail)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commande"})
		return
	}

	if !models.CanTransitionOrder(order.Status, models.OrderStatusRefunded) {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande ne peut plus être remboursée"})
		return
	}

	// Remboursement Stripe uniquement pour les paiements en ligne ;
	// un paiement à la livraison se rembourse hors plateforme
	stripeRefundID := ""
	if order.PaymentIntentID != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(order.PaymentIntentID),
			Amount:        stripe.Int64(int64(refundAmount * 100)),
			Reason:        stripe.String("requested_by_customer"),
		}
		stripeRefund, err := refund.New(params)
		if err != nil {
			log.Printf("❌ Erreur Stripe refund: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur traitement remboursement Stripe", "details": err.Error()})
			return
		}
		stripeRefundID = stripeRefund.ID
	}

	err = session.Query(`
		UPDATE refunds SET status = ?, stripe_refund_id = ?, updated_at = ? WHERE id = ?`,
		"completed", stripeRefundID, now, refundUUID).Exec()
	if err != nil {
		log.Printf("⚠️ Erreur mise à jour refund: %v", err)
	}

	err = session.Query(`UPDATE orders SET status = ? WHERE order_id = ?`,
		models.OrderStatusRefunded, orderID).Exec()
	if err != nil {
		log.Printf("⚠️ Erreur passage en refunded de %s: %v", order.OrderNumber, err)
	}

	restockRefundedOrder(session, orderID, adminID)

	if order.DeliveryEmail != "" {
		go func() {
			if err := utils.SendOrderStatusEmail(order, order.DeliveryEmail, models.OrderStatusRefunded); err != nil {
				log.Println("❌ Erreur envoi e-mail remboursement :", err)
			}
		}()
	}

	log.Printf("✅ Remboursement traité: %s (Stripe: %s)", refundID, stripeRefundID)

	c.JSON(http.StatusOK, gin.H{
		"message":          "Remboursement traité avec succès",
		"status":           "completed",
		"stripe_refund_id": stripeRefundID,
		"amount":           refundAmount,
	})
}

// GetUserRefunds récupère les demandes de remboursement d'un utilisateur
func GetUserRefunds(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT id, order_id, reason, status, refund_amount, stripe_refund_id, created_at, updated_at
		FROM refunds WHERE user_id = ? ALLOW FILTERING`, userID).Iter()

	var refunds []models.Refund
	var r models.Refund
	for iter.Scan(&r.ID, &r.OrderID, &r.Reason, &r.Status, &r.RefundAmount, &r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt) {
		r.UserID = userID
		refunds = append(refunds, r)
		r = models.Refund{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refunds": refunds,
		"count":   len(refunds),
	})
}

// GetAllRefunds récupère toutes les demandes de remboursement (admin)
func GetAllRefunds(c *gin.Context) {
	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`
		SELECT id, order_id, user_id, reason, status, refund_amount, stripe_refund_id, created_at, updated_at
		FROM refunds`).Iter()

	var refunds []models.Refund
	var r models.Refund
	for iter.Scan(&r.ID, &r.OrderID, &r.UserID, &r.Reason, &r.Status, &r.RefundAmount, &r.StripeRefundID, &r.CreatedAt, &r.UpdatedAt) {
		refunds = append(refunds, r)
		r = models.Refund{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture remboursements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refunds": refunds,
		"count":   len(refunds),
	})
}
