package payement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"velora_back_end/internal/models"
)

func pastDate() time.Time   { return time.Now().Add(-24 * time.Hour) }
func futureDate() time.Time { return time.Now().Add(24 * time.Hour) }

func TestCalcTotal(t *testing.T) {
	items := []models.CartItem{
		{Price: 49.90, Quantity: 2},
		{Price: 19.90, Quantity: 1},
	}
	assert.InDelta(t, 119.70, calcTotal(items), 0.001)
	assert.Zero(t, calcTotal(nil))
}

func TestComputeDiscountPercentage(t *testing.T) {
	voucher := models.Voucher{Type: "percentage", Value: 10}
	assert.InDelta(t, 10.0, computeDiscount(voucher, 100), 0.001)
}

func TestComputeDiscountPercentageCappedByMaxAmount(t *testing.T) {
	ceiling := 15.0
	voucher := models.Voucher{Type: "percentage", Value: 20, MaxAmount: &ceiling}

	// 20% de 200 = 40, plafonné à 15
	assert.InDelta(t, 15.0, computeDiscount(voucher, 200), 0.001)

	// Sous le plafond : pourcentage brut
	assert.InDelta(t, 10.0, computeDiscount(voucher, 50), 0.001)
}

func TestComputeDiscountFixed(t *testing.T) {
	voucher := models.Voucher{Type: "fixed", Value: 20}
	assert.InDelta(t, 20.0, computeDiscount(voucher, 100), 0.001)
}

func TestComputeDiscountFixedClampedToTotal(t *testing.T) {
	voucher := models.Voucher{Type: "fixed", Value: 50}
	assert.InDelta(t, 30.0, computeDiscount(voucher, 30), 0.001,
		"un bon fixe ne rend jamais le total négatif")
}

func TestComputeDiscountUnknownType(t *testing.T) {
	voucher := models.Voucher{Type: "loyalty", Value: 50}
	assert.Zero(t, computeDiscount(voucher, 100))
}

func TestCheckVoucher(t *testing.T) {
	base := func() models.Voucher {
		return models.Voucher{
			Code:      "PROMO10",
			Type:      "percentage",
			Value:     10,
			MinAmount: 20,
			MaxUses:   100,
			UsedCount: 0,
			StartsAt:  pastDate(),
			ExpiresAt: futureDate(),
			IsActive:  true,
		}
	}

	v := base()
	assert.Empty(t, checkVoucher(&v, 50))

	v = base()
	v.IsActive = false
	assert.NotEmpty(t, checkVoucher(&v, 50))

	v = base()
	v.StartsAt = futureDate()
	assert.NotEmpty(t, checkVoucher(&v, 50), "bon pas encore valide")

	v = base()
	v.ExpiresAt = pastDate()
	assert.NotEmpty(t, checkVoucher(&v, 50), "bon expiré")

	v = base()
	v.UsedCount = 100
	assert.NotEmpty(t, checkVoucher(&v, 50), "quota d'utilisations atteint")

	v = base()
	assert.NotEmpty(t, checkVoucher(&v, 10), "total sous le minimum")

	v = base()
	v.MaxUses = 0 // illimité
	v.UsedCount = 9999
	assert.Empty(t, checkVoucher(&v, 50))
}
