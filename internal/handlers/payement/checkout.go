package payement

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"velora_back_end/internal/checkout"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/utils"
)

var orchestrator = checkout.NewOrchestrator(checkout.NewScyllaStore())

type checkoutRequest struct {
	Items         []checkout.LineItem   `json:"items" binding:"required"`
	PaymentMethod string                `json:"payment_method" binding:"required"`
	Delivery      checkout.DeliveryInfo `json:"delivery" binding:"required"`
	VoucherID     string                `json:"voucher_id"`
	VoucherCode   string                `json:"voucher_code"`
	Source        string                `json:"source"`
}

// Checkout place une commande : validation, numéro, en-tête, lignes,
// décréments de stock et consommation du bon, le tout compensé en cas
// d'échec. Pour un paiement par carte, un PaymentIntent Stripe est créé
// dans la foulée.
func Checkout(c *gin.Context) {
	userID := c.GetString("user_id")
	userEmail := c.GetString("email")

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données de commande invalides"})
		return
	}

	source := req.Source
	if source == "" {
		source = models.CheckoutSourceBuyNow
	}

	// La remise est toujours recalculée côté serveur à partir du code,
	// jamais reprise du front
	discount := 0.0
	voucherID := req.VoucherID
	if req.VoucherCode != "" {
		voucher, validation := validateVoucherForUser(req.VoucherCode, userID, checkout.Subtotal(req.Items))
		if !validation.IsValid {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrorMessage})
			return
		}
		discount = validation.Discount
		voucherID = voucher.ID.String()
	}

	result, err := orchestrator.PlaceOrder(&checkout.Request{
		UserID:        userID,
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
		Delivery:      req.Delivery,
		VoucherID:     voucherID,
		Discount:      discount,
		Source:        source,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	log.Printf("📦 Commande %s placée par %s (%.2f€)", result.OrderNumber, userID, result.Total)

	response := gin.H{
		"order_id":     result.OrderID.String(),
		"order_number": result.OrderNumber,
		"subtotal":     result.Subtotal,
		"discount":     result.Discount,
		"total":        result.Total,
		"status":       models.OrderStatusPending,
	}

	if req.PaymentMethod == "card" {
		intent, err := createIntentForOrder(result.OrderID.String(), result.OrderNumber, result.Total, userID, userEmail)
		if err != nil {
			// La commande est placée, le paiement pourra être retenté
			// via POST /api/orders/:id/pay
			log.Printf("⚠️ Erreur création PaymentIntent pour %s: %v", result.OrderNumber, err)
			response["payment_error"] = "Le paiement n'a pas pu être initialisé, réessayez"
		} else {
			response["client_secret"] = intent.ClientSecret
			response["payment_intent_id"] = intent.ID
		}
	}

	go sendConfirmationEmail(result, &req, userEmail)

	c.JSON(http.StatusCreated, response)
}

// respondCheckoutError traduit les erreurs de l'orchestrateur en statuts HTTP
func respondCheckoutError(c *gin.Context, err error) {
	var vErr *checkout.ValidationError
	var nfErr *checkout.NotFoundError
	var stockErr *checkout.InsufficientStockError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &nfErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nfErr.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Stock insuffisant",
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.Is(err, checkout.ErrClaimNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vous n'avez pas réclamé ce bon"})
	case errors.Is(err, checkout.ErrClaimNotClaimed):
		c.JSON(http.StatusConflict, gin.H{"error": "Ce bon a déjà été utilisé"})
	case errors.Is(err, checkout.ErrStockContention), errors.Is(err, checkout.ErrNumberExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Trop de commandes simultanées, réessayez"})
	default:
		log.Printf("❌ Erreur checkout: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de la commande"})
	}
}

func sendConfirmationEmail(result *checkout.Result, req *checkoutRequest, userEmail string) {
	to := req.Delivery.Email
	if to == "" {
		to = userEmail
	}
	if to == "" {
		return
	}

	order := models.Order{
		ID:              result.OrderID,
		OrderNumber:     result.OrderNumber,
		Subtotal:        result.Subtotal,
		Discount:        result.Discount,
		Total:           result.Total,
		DeliveryName:    req.Delivery.Name,
		DeliveryAddress: req.Delivery.Address,
		Status:          models.OrderStatusPending,
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, models.OrderItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	if err := utils.SendOrderConfirmationEmail(order, to); err != nil {
		log.Printf("⚠️ Erreur envoi email de confirmation %s: %v", result.OrderNumber, err)
	}
}

// setOrderPaymentIntent rattache l'identifiant du PaymentIntent à la commande
func setOrderPaymentIntent(orderID, intentID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`UPDATE orders SET payment_intent_id = ? WHERE order_id = ?`,
		intentID, orderID).Exec()
}
