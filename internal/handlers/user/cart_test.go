package user

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"velora_back_end/internal/models"
)

func TestMergeCartItemNewLine(t *testing.T) {
	cart := []models.CartItem{
		{ProductID: "p1", Name: "Clavier", Price: 49.90, Quantity: 1},
	}

	cart = mergeCartItem(cart, models.CartItem{ProductID: "p2", Name: "Souris", Price: 19.90, Quantity: 2})

	assert.Len(t, cart, 2)
	assert.Equal(t, "p2", cart[1].ProductID)
	assert.Equal(t, 2, cart[1].Quantity)
}

func TestMergeCartItemCumulatesQuantity(t *testing.T) {
	cart := []models.CartItem{
		{ProductID: "p1", Quantity: 1},
	}

	cart = mergeCartItem(cart, models.CartItem{ProductID: "p1", Quantity: 3})

	assert.Len(t, cart, 1)
	assert.Equal(t, 4, cart[0].Quantity)
}

func TestMergeCartItemDistinguishesVariants(t *testing.T) {
	cart := []models.CartItem{
		{ProductID: "p1", VariantID: "v1", Quantity: 1},
	}

	// Même produit, variante différente : deux lignes distinctes
	cart = mergeCartItem(cart, models.CartItem{ProductID: "p1", VariantID: "v2", Quantity: 1})
	assert.Len(t, cart, 2)

	// Même paire : cumul
	cart = mergeCartItem(cart, models.CartItem{ProductID: "p1", VariantID: "v1", Quantity: 2})
	assert.Len(t, cart, 2)
	assert.Equal(t, 3, cart[0].Quantity)
}

func TestRemovePurchasedExactPairs(t *testing.T) {
	cart := []models.CartItem{
		{ProductID: "p1", VariantID: "v1", Quantity: 2},
		{ProductID: "p1", VariantID: "v2", Quantity: 1},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p3", Quantity: 4},
	}

	kept, removed := removePurchased(cart, []models.PurchasedRef{
		{ProductID: "p1", VariantID: "v1"},
		{ProductID: "p2"},
	})

	assert.Equal(t, 2, removed)
	assert.Len(t, kept, 2)
	assert.Equal(t, "v2", kept[0].VariantID, "l'autre variante du même produit reste")
	assert.Equal(t, "p3", kept[1].ProductID)
}

func TestRemovePurchasedUnknownRefs(t *testing.T) {
	cart := []models.CartItem{
		{ProductID: "p1", Quantity: 1},
	}

	kept, removed := removePurchased(cart, []models.PurchasedRef{
		{ProductID: "inconnu"},
	})

	assert.Zero(t, removed)
	assert.Len(t, kept, 1)
}

func TestRemovePurchasedEmptyCart(t *testing.T) {
	kept, removed := removePurchased(nil, []models.PurchasedRef{{ProductID: "p1"}})
	assert.Zero(t, removed)
	assert.Empty(t, kept)
}
