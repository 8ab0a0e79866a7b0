package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"velora_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// SendEmail envoie un e-mail HTML via le SMTP configuré
func SendEmail(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(os.Getenv("SMTP_FROM")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

// SendOrderConfirmationEmail envoie la confirmation de commande au client
func SendOrderConfirmationEmail(order models.Order, userEmail string) error {
	subject := fmt.Sprintf("✅ Commande %s confirmée - Velora", order.OrderNumber)
	html := generateOrderConfirmationHTML(order)
	return SendEmail(userEmail, subject, html)
}

// generateOrderConfirmationHTML génère le HTML de confirmation de commande
func generateOrderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%.2f€</td>
				<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%.2f€</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	discountHTML := ""
	if order.Discount > 0 {
		discountHTML = fmt.Sprintf(`<p style="color: #28a745;">Remise appliquée : −%.2f€</p>`, order.Discount)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Confirmation de commande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Confirmation de votre commande %s</h2>
		<p>Bonjour %s,</p>
		<p>Merci pour votre commande sur Velora ! Voici le récapitulatif :</p>
		<table style="width: 100%%; border-collapse: collapse;">
			<thead>
				<tr style="background-color: #f5f5f5;">
					<th style="padding: 8px; text-align: left;">Article</th>
					<th style="padding: 8px;">Qté</th>
					<th style="padding: 8px; text-align: right;">Prix</th>
					<th style="padding: 8px; text-align: right;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
		</table>
		%s
		<h3 style="text-align: right;">Total : %.2f€</h3>
		<p>Livraison à : %s</p>
		<p style="color: #888; font-size: 12px;">Vous recevrez un e-mail à chaque étape de la préparation de votre commande.</p>
	</div>
</body>
</html>`, order.OrderNumber, order.DeliveryName, itemsHTML, discountHTML, order.Total, order.DeliveryAddress)
}
