package payement

import (
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

// createIntentForOrder crée un PaymentIntent Stripe pour une commande déjà
// placée et le rattache à celle-ci. L'order_id en métadonnée permet au
// webhook de retrouver la commande.
func createIntentForOrder(orderID, orderNumber string, total float64, userID, email string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(total * 100)),
		Currency: stripe.String("eur"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"order_id":     orderID,
			"order_number": orderNumber,
			"user_id":      userID,
			"email":        email,
		},
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}

	if err := setOrderPaymentIntent(orderID, intent.ID); err != nil {
		log.Printf("⚠️ Impossible de rattacher le PaymentIntent %s à %s: %v", intent.ID, orderNumber, err)
	}

	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour %s", intent.ID, total, email)
	return intent, nil
}

// CreateOrderPaymentIntent (re)crée un PaymentIntent pour une commande en
// attente de paiement. Utile quand la création pendant le checkout a échoué.
func CreateOrderPaymentIntent(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")
	orderID := c.Param("id")

	if _, err := gocql.ParseUUID(orderID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID de commande invalide"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	var ownerID, status, paymentMethod, orderNumber string
	var total float64
	err = session.Query(`
		SELECT user_id, status, payment_method, order_number, total
		FROM orders WHERE order_id = ?`, orderID).
		Scan(&ownerID, &status, &paymentMethod, &orderNumber, &total)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if ownerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}
	if status != models.OrderStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Cette commande n'est plus en attente de paiement"})
		return
	}
	if paymentMethod != "card" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cette commande n'est pas payable par carte"})
		return
	}

	intent, err := createIntentForOrder(orderID, orderNumber, total, userID, email)
	if err != nil {
		log.Println("❌ Erreur Stripe:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'initialisation du paiement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clientSecret": intent.ClientSecret,
		"paymentId":    intent.ID,
	})
}

// StripeWebhook reçoit les événements Stripe
func StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		log.Println("❌ Lecture payload échouée:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Échec lecture body"})
		return
	}

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	var event stripe.Event

	if secret == "" {
		log.Println("⚠️ Pas de STRIPE_WEBHOOK_SECRET — mode test")
		if err := json.Unmarshal(payload, &event); err != nil {
			log.Println("❌ JSON invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "JSON invalide"})
			return
		}
	} else {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Println("❌ Signature Stripe invalide:", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
			return
		}
	}

	log.Printf("📥 Événement Stripe reçu : %s", event.Type)
	handleStripeEvent(event)

	c.Status(http.StatusOK)
}

// handleStripeEvent marque la commande payée à la confirmation du paiement.
// Le webhook peut être rejoué : une commande déjà sortie de pending est
// laissée telle quelle.
func handleStripeEvent(event stripe.Event) {
	if event.Type != "payment_intent.succeeded" {
		log.Printf("ℹ️ Événement ignoré : %s", event.Type)
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		log.Println("❌ Erreur décodage PaymentIntent:", err)
		return
	}

	orderID := pi.Metadata["order_id"]
	userEmail := pi.Metadata["email"]
	if orderID == "" {
		log.Printf("⚠️ PaymentIntent %s sans order_id en métadonnée", pi.ID)
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		log.Println("❌ Erreur session Scylla:", err)
		return
	}

	var order models.Order
	err = session.Query(`
		SELECT order_id, order_number, user_id, status, total, delivery_name, delivery_email
		FROM orders WHERE order_id = ?`, orderID).
		Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.Status,
			&order.Total, &order.DeliveryName, &order.DeliveryEmail)
	if err != nil {
		log.Printf("❌ Commande %s introuvable pour PaymentIntent %s: %v", orderID, pi.ID, err)
		return
	}

	if order.Status != models.OrderStatusPending {
		log.Printf("🔁 Commande %s déjà en statut %s, webhook ignoré", order.OrderNumber, order.Status)
		return
	}

	err = session.Query(`UPDATE orders SET status = ?, payment_intent_id = ? WHERE order_id = ?`,
		models.OrderStatusPaid, pi.ID, orderID).Exec()
	if err != nil {
		log.Printf("❌ Erreur passage en paid de %s: %v", order.OrderNumber, err)
		return
	}
	log.Printf("✅ Commande %s payée (%s)", order.OrderNumber, pi.ID)

	to := order.DeliveryEmail
	if to == "" {
		to = userEmail
	}
	if to != "" {
		go func() {
			if err := utils.SendOrderStatusEmail(order, to, models.OrderStatusPaid); err != nil {
				log.Println("❌ Erreur envoi e-mail paiement :", err)
			}
		}()
	}
}
