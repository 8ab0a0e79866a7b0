package checkout

import "github.com/gocql/gocql"

// Subtotal calcule la somme prix × quantité des lignes.
func Subtotal(items []LineItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// validate rejette la requête avant toute écriture si un champ obligatoire manque.
func validate(req *Request) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "utilisateur requis"}
	}
	if len(req.Items) == 0 {
		return &ValidationError{Field: "items", Message: "au moins un article requis"}
	}
	if req.PaymentMethod == "" {
		return &ValidationError{Field: "payment_method", Message: "méthode de paiement requise"}
	}
	if req.PaymentMethod != "card" && req.PaymentMethod != "cod" {
		return &ValidationError{Field: "payment_method", Message: "méthode de paiement inconnue"}
	}
	if req.Delivery.Name == "" {
		return &ValidationError{Field: "delivery.name", Message: "nom de livraison requis"}
	}
	if req.Discount < 0 {
		return &ValidationError{Field: "discount", Message: "la remise ne peut pas être négative"}
	}
	if req.Discount > 0 && req.VoucherID == "" {
		return &ValidationError{Field: "voucher_id", Message: "remise fournie sans bon associé"}
	}

	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return &ValidationError{Field: "items", Message: "quantité invalide"}
		}
		if item.Price < 0 {
			return &ValidationError{Field: "items", Message: "prix invalide"}
		}
		if _, err := gocql.ParseUUID(item.ProductID); err != nil {
			return &ValidationError{Field: "items", Message: "ID produit invalide: " + req.Items[i].ProductID}
		}
		if item.VariantID != "" {
			if _, err := gocql.ParseUUID(item.VariantID); err != nil {
				return &ValidationError{Field: "items", Message: "ID variante invalide: " + req.Items[i].VariantID}
			}
		}
	}

	if req.VoucherID != "" {
		if _, err := gocql.ParseUUID(req.VoucherID); err != nil {
			return &ValidationError{Field: "voucher_id", Message: "ID bon invalide"}
		}
	}

	return nil
}
