package user

import (
	"log"
	"net/http"
	"sort"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

// loadOrderItems récupère les lignes d'une commande
func loadOrderItems(session *gocql.Session, orderID gocql.UUID) ([]models.OrderItem, error) {
	iter := session.Query(`SELECT order_id, item_id, product_id, variant_id, name, price, quantity
		FROM order_items WHERE order_id = ?`, orderID).Iter()

	var items []models.OrderItem
	var item models.OrderItem
	for iter.Scan(&item.OrderID, &item.ItemID, &item.ProductID, &item.VariantID,
		&item.Name, &item.Price, &item.Quantity) {
		items = append(items, item)
		item = models.OrderItem{}
	}
	return items, iter.Close()
}

func scanOrder(iter *gocql.Iter, order *models.Order) bool {
	return iter.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.PaymentMethod,
		&order.PaymentIntentID, &order.Subtotal, &order.Discount, &order.Total,
		&order.VoucherID, &order.DeliveryName, &order.DeliveryPhone, &order.DeliveryEmail,
		&order.DeliveryAddress, &order.Status, &order.Source, &order.CreatedAt)
}

const orderColumns = `order_id, order_number, user_id, payment_method, payment_intent_id, subtotal, discount, total, voucher_id,
	delivery_name, delivery_phone, delivery_email, delivery_address, status, source, created_at`

// ✅ Récupère toutes les commandes de l'utilisateur connecté
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ALLOW FILTERING`, userID).Iter()

	var orders []models.Order
	var order models.Order
	for scanOrder(iter, &order) {
		orders = append(orders, order)
		order = models.Order{}
	}

	if err := iter.Close(); err != nil {
		log.Println("❌ Erreur récupération commandes:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur récupération commandes"})
		return
	}

	// Plus récentes en premier
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	// ✅ Enrichir avec les lignes de commande
	for i := range orders {
		items, err := loadOrderItems(session, orders[i].ID)
		if err != nil {
			log.Println("⚠️ Erreur lecture lignes commande:", err)
			continue
		}
		orders[i].Items = items
	}

	log.Printf("✅ %d commandes trouvées pour user %s", len(orders), userID)

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
	})
}

// ✅ Récupère une commande spécifique par ID
func GetOrderByID(c *gin.Context) {
	userID := c.GetString("user_id")
	orderIDStr := c.Param("id")

	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	orderID, err := gocql.ParseUUID(orderIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, orderID).Iter()

	var order models.Order
	found := scanOrder(iter, &order)
	if err := iter.Close(); err != nil || !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	// ✅ Sécurité : on vérifie que la commande appartient bien à l'utilisateur
	if order.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette commande ne vous appartient pas"})
		return
	}

	items, err := loadOrderItems(session, order.ID)
	if err != nil {
		log.Println("⚠️ Erreur lecture lignes commande:", err)
	}
	order.Items = items

	c.JSON(http.StatusOK, order)
}
