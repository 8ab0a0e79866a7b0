package payement

import "velora_back_end/internal/models"

// calcTotal calcule le total d'une liste d'items du panier
func calcTotal(items []models.CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// computeDiscount calcule la remise d'un bon pour un total de panier donné.
// Un pourcentage est plafonné par max_amount, un montant fixe par le total.
func computeDiscount(voucher models.Voucher, cartTotal float64) float64 {
	switch voucher.Type {
	case "percentage":
		discount := cartTotal * voucher.Value / 100
		if voucher.MaxAmount != nil && discount > *voucher.MaxAmount {
			discount = *voucher.MaxAmount
		}
		return discount
	case "fixed":
		if voucher.Value > cartTotal {
			return cartTotal
		}
		return voucher.Value
	}
	return 0
}
