package utils

import (
	"fmt"
	"log"

	"velora_back_end/internal/models"
)

// SendOrderStatusEmail envoie un email de notification de changement de statut
func SendOrderStatusEmail(order models.Order, userEmail string, newStatus string) error {
	subject := getStatusEmailSubject(newStatus)
	html := generateStatusEmailHTML(order, newStatus)

	err := SendEmail(userEmail, subject, html)
	if err != nil {
		log.Printf("❌ Erreur envoi email statut: %v", err)
		return err
	}

	log.Printf("📧 Email de statut envoyé: %s → %s", newStatus, userEmail)
	return nil
}

func getStatusEmailSubject(status string) string {
	switch status {
	case models.OrderStatusPaid:
		return "✅ Paiement confirmé - Velora"
	case models.OrderStatusShipping:
		return "📦 Votre commande a été expédiée - Velora"
	case models.OrderStatusCompleted:
		return "🎉 Votre commande a été livrée - Velora"
	case models.OrderStatusCancelled:
		return "❌ Commande annulée - Velora"
	case models.OrderStatusRefunded:
		return "💰 Remboursement effectué - Velora"
	default:
		return "📋 Mise à jour de votre commande - Velora"
	}
}

func getStatusMessage(status string) string {
	switch status {
	case models.OrderStatusPaid:
		return "Votre paiement a bien été reçu. Nous préparons votre commande."
	case models.OrderStatusShipping:
		return "Votre commande est en route ! Suivez-la en temps réel depuis votre espace client."
	case models.OrderStatusCompleted:
		return "Votre commande a été livrée. Merci de votre confiance !"
	case models.OrderStatusCancelled:
		return "Votre commande a été annulée. Si vous pensez qu'il s'agit d'une erreur, contactez-nous."
	case models.OrderStatusRefunded:
		return "Votre remboursement a été effectué. Il apparaîtra sur votre compte sous quelques jours."
	default:
		return "Le statut de votre commande a été mis à jour."
	}
}

func generateStatusEmailHTML(order models.Order, status string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Mise à jour de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Commande %s</h2>
		<p>Bonjour %s,</p>
		<p>%s</p>
		<p style="text-align: center; margin: 24px 0;">
			<span style="display: inline-block; padding: 8px 20px; background-color: #667eea; color: white; border-radius: 20px;">%s</span>
		</p>
		<p style="color: #888; font-size: 12px;">Velora — votre boutique en ligne</p>
	</div>
</body>
</html>`, order.OrderNumber, order.DeliveryName, getStatusMessage(status), status)
}
