package checkout

import (
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Regexp(t, `^CMD-\d{6}$`, GenerateOrderNumber())
	}
}

func TestReserveNumberRetriesOnCollision(t *testing.T) {
	store := newFakeStore()
	collisions := 0

	// Les deux premiers candidats entrent en collision, le troisième passe
	orch := NewOrchestrator(&collidingStore{fakeStore: store, collide: func() bool {
		collisions++
		return collisions <= 2
	}})

	number, err := orch.reserveNumber(gocql.TimeUUID())
	require.NoError(t, err)
	assert.Regexp(t, `^CMD-\d{6}$`, number)
	assert.Equal(t, 3, collisions)
}

func TestReserveNumberExhaustion(t *testing.T) {
	store := newFakeStore()
	store.reserveAlwaysCollides = true

	orch := NewOrchestrator(store)
	_, err := orch.reserveNumber(gocql.TimeUUID())
	require.ErrorIs(t, err, ErrNumberExhausted)
}

func TestCheckoutFailsWhenNumbersExhausted(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5
	store.reserveAlwaysCollides = true

	_, err := NewOrchestrator(store).PlaceOrder(baseRequest())
	require.ErrorIs(t, err, ErrNumberExhausted)

	assert.Empty(t, store.orders)
	assert.Equal(t, 10, store.stock[testProductA], "le stock n'a jamais été touché")

	for _, state := range store.journal {
		assert.Equal(t, JournalCompensated, state)
	}
}

// collidingStore force des collisions de numéro contrôlées par le test.
type collidingStore struct {
	*fakeStore
	collide func() bool
}

func (c *collidingStore) ReserveOrderNumber(number string, orderID gocql.UUID) (bool, error) {
	if c.collide() {
		return false, nil
	}
	return c.fakeStore.ReserveOrderNumber(number, orderID)
}
