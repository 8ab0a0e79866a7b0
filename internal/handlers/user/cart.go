package user

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"velora_back_end/internal/cache"
	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const cartTTL = 30 * 24 * time.Hour

func cartKey(userID string) string {
	return "cart:" + userID
}

// loadCart lit le panier Redis d'un utilisateur (vide si absent)
func loadCart(ctx context.Context, userID string) []models.CartItem {
	data, err := database.Redis.Get(ctx, cartKey(userID)).Result()
	if err != nil || data == "" {
		return []models.CartItem{}
	}

	var cart []models.CartItem
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return []models.CartItem{}
	}
	return cart
}

// saveCart sauvegarde le panier et notifie les clients connectés
func saveCart(ctx context.Context, userID string, cart []models.CartItem) error {
	jsonData, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	if err := database.Redis.Set(ctx, cartKey(userID), jsonData, cartTTL).Err(); err != nil {
		return err
	}
	database.Redis.Publish(ctx, cartKey(userID), "updated")
	return nil
}

// mergeCartItem ajoute un item au panier, en cumulant la quantité si la paire
// (produit, variante) est déjà présente.
func mergeCartItem(cart []models.CartItem, item models.CartItem) []models.CartItem {
	for i := range cart {
		if cart[i].ProductID == item.ProductID && cart[i].VariantID == item.VariantID {
			cart[i].Quantity += item.Quantity
			return cart
		}
	}
	return append(cart, item)
}

// removePurchased retire du panier exactement les paires (produit, variante)
// achetées et laisse les autres lignes intactes. Retourne le nombre de lignes
// supprimées.
func removePurchased(cart []models.CartItem, purchased []models.PurchasedRef) ([]models.CartItem, int) {
	bought := make(map[models.PurchasedRef]bool, len(purchased))
	for _, ref := range purchased {
		bought[ref] = true
	}

	kept := make([]models.CartItem, 0, len(cart))
	removed := 0
	for _, item := range cart {
		if bought[models.PurchasedRef{ProductID: item.ProductID, VariantID: item.VariantID}] {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}

//
// 🟢 GET /api/cart
//
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	cart := loadCart(context.Background(), userID)
	c.JSON(http.StatusOK, gin.H{"items": cart})
}

//
// 🟢 POST /api/cart/add
//
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	// 🧩 Récupération du produit (cache Redis puis ScyllaDB)
	product, err := cache.GetProductFromCache(input.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if !product.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Produit indisponible"})
		return
	}

	price := product.Price
	name := product.Name

	// 🔎 Si une variante est demandée, on fige son prix à elle
	if input.VariantID != "" {
		variantID, err := uuid.Parse(input.VariantID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID variante invalide"})
			return
		}

		session, err := database.GetProductsSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
			return
		}

		var variantProductID gocql.UUID
		var variantPrice float64
		var isActive bool
		err = session.Query(database.CQLGetVariantPrice,
			gocql.UUID(variantID)).Scan(&variantProductID, &variantPrice, &isActive)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Variante introuvable"})
			return
		}

		if variantProductID != product.ID || !isActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Variante indisponible pour ce produit"})
			return
		}

		price = variantPrice
	}

	// 🖼️ Première image pour l'aperçu panier
	imageURL := ""
	if len(product.ImageURLs) > 0 {
		imageURL = product.ImageURLs[0]
	}

	item := models.CartItem{
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Name:      name,
		Price:     price,
		Quantity:  input.Quantity,
		ImageURL:  imageURL,
	}

	ctx := context.Background()
	cart := mergeCartItem(loadCart(ctx, userID), item)

	if err := saveCart(ctx, userID, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit ajouté au panier",
		"items":   cart,
	})
}

//
// 🔁 PUT /api/cart/quantity
//
func UpdateCartQuantity(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId"`
		Quantity  int    `json:"quantity"`
	}

	if err := c.ShouldBindJSON(&input); err != nil || input.Quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	ctx := context.Background()
	cart := loadCart(ctx, userID)

	found := false
	for i := range cart {
		if cart[i].ProductID == input.ProductID && cart[i].VariantID == input.VariantID {
			cart[i].Quantity = input.Quantity
			found = true
			break
		}
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article absent du panier"})
		return
	}

	if err := saveCart(ctx, userID, cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": cart})
}

//
// ❌ DELETE /api/cart/:productId
//
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	productID := c.Param("productId")
	variantID := c.Query("variantId")

	ctx := context.Background()
	cart := loadCart(ctx, userID)
	if len(cart) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Panier vide"})
		return
	}

	newCart := []models.CartItem{}
	for _, item := range cart {
		if item.ProductID == productID && item.VariantID == variantID {
			continue
		}
		newCart = append(newCart, item)
	}

	if err := saveCart(ctx, userID, newCart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Produit supprimé du panier",
		"items":   newCart,
	})
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	ctx := context.Background()

	// 🧹 Supprime complètement la clé Redis
	if err := database.Redis.Del(ctx, cartKey(userID)).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}
	database.Redis.Publish(ctx, cartKey(userID), "cleared")

	c.JSON(http.StatusOK, gin.H{
		"message": "Panier vidé avec succès",
	})
}

//
// 🗑️ POST /api/checkout/remove-purchased
//
// Appelé après un checkout réussi. Ne touche au panier que si la commande
// venait du panier : un achat direct ("buy now") laisse le panier intact.
func RemovePurchasedItems(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "non authentifié"})
		return
	}

	var input struct {
		Items  []models.PurchasedRef `json:"items"`
		Source string                `json:"source"` // "cart" ou "buy_now"
	}

	if err := c.ShouldBindJSON(&input); err != nil || len(input.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	if input.Source != models.CheckoutSourceCart {
		c.JSON(http.StatusOK, gin.H{
			"message": "Achat direct, panier inchangé",
			"removed": 0,
		})
		return
	}

	ctx := context.Background()
	cart, removed := removePurchased(loadCart(ctx, userID), input.Items)

	if removed > 0 {
		if err := saveCart(ctx, userID, cart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Articles achetés retirés du panier",
		"removed": removed,
		"items":   cart,
	})
}
