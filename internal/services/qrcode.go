package services

import (
	"fmt"
	"os"

	qrcode "github.com/skip2/go-qrcode"
)

// TrackingQRCode génère le QR code PNG pointant vers la page de suivi d'une
// commande (collé sur le colis par l'expéditeur).
func TrackingQRCode(orderID string) ([]byte, error) {
	baseURL := os.Getenv("PUBLIC_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	url := fmt.Sprintf("%s/suivi/%s", baseURL, orderID)
	return qrcode.Encode(url, qrcode.Medium, 256)
}
