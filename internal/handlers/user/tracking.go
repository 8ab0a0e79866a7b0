package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
	"velora_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

const (
	trackingTTL = 24 * time.Hour
)

func trackingKey(orderID string) string {
	return "tracking:" + orderID
}

// orderOwner retourne le propriétaire d'une commande
func orderOwner(orderID gocql.UUID) (string, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return "", err
	}

	var ownerID string
	err = session.Query(`SELECT user_id FROM orders WHERE order_id = ?`, orderID).Scan(&ownerID)
	return ownerID, err
}

// TrackOrder gère le suivi de commande en temps réel.
// La dernière position vit dans Redis avec TTL (aucune map en mémoire
// process, pas de fuite), et le fan-out passe par Redis pub/sub.
func TrackOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ownerID, err := orderOwner(orderID)
	if err != nil || ownerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Commande introuvable ou non autorisée"})
		return
	}

	// Upgrade vers WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	// S'abonner au canal Redis pour cette commande
	pubsub := database.Redis.Subscribe(ctx, trackingKey(orderID.String()))
	defer pubsub.Close()

	ch := pubsub.Channel()

	// Envoyer la dernière position connue à la connexion
	if data, err := database.Redis.Get(ctx, trackingKey(orderID.String())).Result(); err == nil && data != "" {
		var position models.TrackingPosition
		if json.Unmarshal([]byte(data), &position) == nil {
			conn.WriteJSON(map[string]interface{}{
				"type":     "position",
				"position": position,
			})
		}
	} else {
		conn.WriteJSON(map[string]interface{}{
			"type":    "connected",
			"message": "Suivi de commande activé",
		})
	}

	// Boucle d'écoute
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var position models.TrackingPosition
			if err := json.Unmarshal([]byte(msg.Payload), &position); err != nil {
				continue
			}

			if err := conn.WriteJSON(map[string]interface{}{
				"type":     "position",
				"position": position,
			}); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

//
// 🚚 POST /api/orders/:id/position (livreur/admin)
//
func UpdateOrderPosition(c *gin.Context) {
	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	var input struct {
		Latitude  float64 `json:"latitude" binding:"required"`
		Longitude float64 `json:"longitude" binding:"required"`
		Status    string  `json:"status"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	position := models.TrackingPosition{
		OrderID:   orderID.String(),
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Status:    input.Status,
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(position)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sérialisation position"})
		return
	}

	ctx := context.Background()
	key := trackingKey(orderID.String())

	// Dernière position en Redis avec TTL, puis notification des abonnés
	if err := database.Redis.Set(ctx, key, data, trackingTTL).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde position"})
		return
	}
	database.Redis.Publish(ctx, key, data)

	c.JSON(http.StatusOK, gin.H{"message": "Position mise à jour"})
}

//
// 📱 GET /api/orders/:id/tracking-qr
//
func TrackingQRCode(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	orderID, err := gocql.ParseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ownerID, err := orderOwner(orderID)
	if err != nil || ownerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Commande introuvable ou non autorisée"})
		return
	}

	png, err := services.TrackingQRCode(orderID.String())
	if err != nil {
		log.Printf("❌ Erreur génération QR code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
