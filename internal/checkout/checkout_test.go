package checkout

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velora_back_end/internal/models"
)

type fakeClaim struct {
	status  string
	orderID *gocql.UUID
}

// fakeStore est une implémentation en mémoire de Store. Toutes les méthodes
// sont protégées par un mutex pour les tests de concurrence.
type fakeStore struct {
	mu sync.Mutex

	numbers   map[string]gocql.UUID
	journal   map[gocql.UUID]string
	orders    map[gocql.UUID]*models.Order
	items     map[gocql.UUID][]models.OrderItem
	stock     map[string]int
	movements []models.StockMovement
	claims    map[string]*fakeClaim
	usage     map[string]int

	// Pannes simulées
	reserveAlwaysCollides bool
	failInsertItem        bool
	forceRedeem           *RedeemOutcome
	redeemErr             error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		numbers: make(map[string]gocql.UUID),
		journal: make(map[gocql.UUID]string),
		orders:  make(map[gocql.UUID]*models.Order),
		items:   make(map[gocql.UUID][]models.OrderItem),
		stock:   make(map[string]int),
		claims:  make(map[string]*fakeClaim),
		usage:   make(map[string]int),
	}
}

func stockKey(productID, variantID string) string {
	if variantID != "" {
		return variantID
	}
	return productID
}

func claimKey(userID string, voucherID gocql.UUID) string {
	return userID + "/" + voucherID.String()
}

func (f *fakeStore) ReserveOrderNumber(number string, orderID gocql.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveAlwaysCollides {
		return false, nil
	}
	if _, taken := f.numbers[number]; taken {
		return false, nil
	}
	f.numbers[number] = orderID
	return true, nil
}

func (f *fakeStore) ReleaseOrderNumber(number string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.numbers, number)
	return nil
}

func (f *fakeStore) JournalStart(orderID gocql.UUID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journal[orderID] = JournalStarted
	return nil
}

func (f *fakeStore) JournalFinish(orderID gocql.UUID, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.journal[orderID] = state
	return nil
}

func (f *fakeStore) InsertOrder(order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.ID] = order
	return nil
}

func (f *fakeStore) DeleteOrder(orderID gocql.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, orderID)
	return nil
}

func (f *fakeStore) InsertOrderItem(item *models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertItem {
		return errors.New("écriture refusée")
	}
	f.items[item.OrderID] = append(f.items[item.OrderID], *item)
	return nil
}

func (f *fakeStore) DeleteOrderItems(orderID gocql.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, orderID)
	return nil
}

func (f *fakeStore) DecrementStock(productID, variantID string, quantity int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := stockKey(productID, variantID)
	current, ok := f.stock[key]
	if !ok {
		kind := "product"
		if variantID != "" {
			kind = "variant"
		}
		return 0, &NotFoundError{Kind: kind, ID: key}
	}
	if current < quantity {
		return 0, &InsufficientStockError{
			ProductID: productID,
			VariantID: variantID,
			Available: current,
			Requested: quantity,
		}
	}
	f.stock[key] = current - quantity
	return current, nil
}

func (f *fakeStore) RestoreStock(productID, variantID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[stockKey(productID, variantID)] += quantity
	return nil
}

func (f *fakeStore) RecordStockMovement(movement *models.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeStore) RedeemClaim(userID string, voucherID, orderID gocql.UUID) (RedeemOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.redeemErr != nil {
		return RedeemNotFound, f.redeemErr
	}
	if f.forceRedeem != nil {
		return *f.forceRedeem, nil
	}

	claim, ok := f.claims[claimKey(userID, voucherID)]
	if !ok {
		return RedeemNotFound, nil
	}
	if claim.status == models.ClaimStatusUsed {
		if claim.orderID != nil && *claim.orderID == orderID {
			return RedeemAlreadyThisOrder, nil
		}
		return RedeemWrongState, nil
	}
	claim.status = models.ClaimStatusUsed
	claim.orderID = &orderID
	return RedeemApplied, nil
}

func (f *fakeStore) RevertClaim(userID string, voucherID gocql.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if claim, ok := f.claims[claimKey(userID, voucherID)]; ok {
		claim.status = models.ClaimStatusClaimed
		claim.orderID = nil
	}
	return nil
}

func (f *fakeStore) AdjustVoucherUsage(voucherID gocql.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[voucherID.String()] += delta
	return nil
}

const (
	testProductA = "11111111-1111-1111-1111-111111111111"
	testProductB = "22222222-2222-2222-2222-222222222222"
	testVariantA = "33333333-3333-3333-3333-333333333333"
	testVoucher  = "44444444-4444-4444-4444-444444444444"
)

func baseRequest() *Request {
	return &Request{
		UserID:        "user-1",
		PaymentMethod: "cod",
		Delivery: DeliveryInfo{
			Name:    "Jean Dupont",
			Phone:   "+32470000000",
			Email:   "jean@example.com",
			Address: "Rue de la Loi 1, Bruxelles",
		},
		Source: models.CheckoutSourceCart,
		Items: []LineItem{
			{ProductID: testProductA, Name: "Clavier", Price: 49.90, Quantity: 2},
			{ProductID: testProductB, VariantID: testVariantA, Name: "T-shirt L", Price: 19.90, Quantity: 1},
		},
	}
}

func TestPlaceOrderSuccess(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5

	result, err := NewOrchestrator(store).PlaceOrder(baseRequest())
	require.NoError(t, err)

	assert.InDelta(t, 119.70, result.Subtotal, 0.001)
	assert.InDelta(t, 119.70, result.Total, 0.001)
	assert.Zero(t, result.Discount)
	assert.Regexp(t, `^CMD-\d{6}$`, result.OrderNumber)
	assert.False(t, result.VoucherReplayed)

	order, ok := store.orders[result.OrderID]
	require.True(t, ok, "la commande doit être persistée")
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.CheckoutSourceCart, order.Source)
	assert.Equal(t, "user-1", order.UserID)

	assert.Len(t, store.items[result.OrderID], 2)
	assert.Equal(t, 8, store.stock[testProductA])
	assert.Equal(t, 4, store.stock[testVariantA])
	assert.Equal(t, JournalCommitted, store.journal[result.OrderID])

	require.Len(t, store.movements, 2)
	assert.Equal(t, "sale", store.movements[0].Type)
	assert.Equal(t, 10, store.movements[0].PrevStock)
	assert.Equal(t, 8, store.movements[0].NewStock)
}

func TestPlaceOrderSnapshotsNameAndPrice(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 3

	req := baseRequest()
	req.Items = req.Items[:1]

	result, err := NewOrchestrator(store).PlaceOrder(req)
	require.NoError(t, err)

	items := store.items[result.OrderID]
	require.Len(t, items, 1)
	assert.Equal(t, "Clavier", items[0].Name)
	assert.InDelta(t, 49.90, items[0].Price, 0.001)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestPlaceOrderInsufficientStockRollsBackEverything(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 0 // la deuxième ligne échoue

	_, err := NewOrchestrator(store).PlaceOrder(baseRequest())

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, testVariantA, stockErr.VariantID)
	assert.Equal(t, 0, stockErr.Available)
	assert.Equal(t, 1, stockErr.Requested)

	// Tout est revenu à l'état initial
	assert.Empty(t, store.orders, "aucune commande ne doit subsister")
	assert.Empty(t, store.items)
	assert.Empty(t, store.numbers, "le numéro de commande doit être libéré")
	assert.Equal(t, 10, store.stock[testProductA], "le stock de la première ligne doit être restauré")
	assert.Empty(t, store.movements, "pas de mouvement de stock pour un checkout compensé")

	for _, state := range store.journal {
		assert.Equal(t, JournalCompensated, state)
	}
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	// testVariantA absent du stock

	_, err := NewOrchestrator(store).PlaceOrder(baseRequest())

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "variant", nfErr.Kind)
	assert.Empty(t, store.orders)
	assert.Equal(t, 10, store.stock[testProductA])
}

func TestPlaceOrderItemInsertFailureReleasesNumber(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5
	store.failInsertItem = true

	_, err := NewOrchestrator(store).PlaceOrder(baseRequest())
	require.Error(t, err)

	assert.Empty(t, store.orders)
	assert.Empty(t, store.numbers)
	assert.Equal(t, 10, store.stock[testProductA], "le stock n'a jamais été touché")
	assert.Equal(t, 5, store.stock[testVariantA])
}

func TestPlaceOrderValidation(t *testing.T) {
	mutations := map[string]struct {
		mutate func(*Request)
		field  string
	}{
		"utilisateur manquant":   {func(r *Request) { r.UserID = "" }, "user_id"},
		"panier vide":            {func(r *Request) { r.Items = nil }, "items"},
		"méthode inconnue":       {func(r *Request) { r.PaymentMethod = "bitcoin" }, "payment_method"},
		"nom livraison manquant": {func(r *Request) { r.Delivery.Name = "" }, "delivery.name"},
		"quantité nulle":         {func(r *Request) { r.Items[0].Quantity = 0 }, "items"},
		"prix négatif":           {func(r *Request) { r.Items[0].Price = -1 }, "items"},
		"produit invalide":       {func(r *Request) { r.Items[0].ProductID = "pas-un-uuid" }, "items"},
		"remise négative":        {func(r *Request) { r.Discount = -5 }, "discount"},
		"remise sans bon":        {func(r *Request) { r.Discount = 5 }, "voucher_id"},
		"bon invalide":           {func(r *Request) { r.VoucherID = "pas-un-uuid" }, "voucher_id"},
	}

	for name, tc := range mutations {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.stock[testProductA] = 10
			store.stock[testVariantA] = 5

			req := baseRequest()
			tc.mutate(req)

			_, err := NewOrchestrator(store).PlaceOrder(req)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
			assert.Empty(t, store.journal, "aucune écriture avant validation")
		})
	}
}

func TestPlaceOrderDiscountExceedsSubtotal(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5

	req := baseRequest()
	req.VoucherID = testVoucher
	req.Discount = 500

	_, err := NewOrchestrator(store).PlaceOrder(req)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "discount", vErr.Field)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 5

	orch := NewOrchestrator(store)

	const attempts = 12
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := baseRequest()
			req.Items = []LineItem{{ProductID: testProductA, Name: "Clavier", Price: 49.90, Quantity: 1}}
			_, err := orch.PlaceOrder(req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			var stockErr *InsufficientStockError
			require.ErrorAs(t, err, &stockErr)
		}
	}

	assert.Equal(t, 5, succeeded, "exactement une commande par unité de stock")
	assert.Equal(t, 0, store.stock[testProductA])
	assert.Len(t, store.orders, 5)
}

func TestConcurrentCheckoutsKeepHeadersAndItemsConsistent(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 100

	orch := NewOrchestrator(store)

	type placed struct {
		result *Result
		name   string
		qty    int
		err    error
	}

	const orders = 20
	var wg sync.WaitGroup
	results := make(chan placed, orders)

	for i := 0; i < orders; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := baseRequest()
			name := fmt.Sprintf("Client %02d", i)
			qty := i%3 + 1
			req.Delivery.Name = name
			req.Items = []LineItem{{ProductID: testProductA, Name: "Clavier", Price: 49.90, Quantity: qty}}

			res, err := orch.PlaceOrder(req)
			results <- placed{result: res, name: name, qty: qty, err: err}
		}()
	}
	wg.Wait()
	close(results)

	// Chaque commande doit avoir persisté SES valeurs : aucun mélange
	// d'en-têtes ou de lignes entre commandes concurrentes
	seen := make(map[string]bool)
	for p := range results {
		require.NoError(t, p.err)

		order, ok := store.orders[p.result.OrderID]
		require.True(t, ok)
		assert.Equal(t, p.name, order.DeliveryName)
		assert.Equal(t, p.result.OrderNumber, order.OrderNumber)
		assert.InDelta(t, float64(p.qty)*49.90, order.Total, 0.001)

		items := store.items[p.result.OrderID]
		require.Len(t, items, 1)
		assert.Equal(t, p.result.OrderID, items[0].OrderID)
		assert.Equal(t, p.qty, items[0].Quantity)

		assert.Equal(t, p.result.OrderID, store.numbers[p.result.OrderNumber])
		assert.False(t, seen[p.result.OrderNumber], "numéro de commande dupliqué")
		seen[p.result.OrderNumber] = true
	}
	assert.Len(t, store.orders, orders)
}

func TestPlaceOrderWithVoucher(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5

	voucherUUID, _ := gocql.ParseUUID(testVoucher)
	store.claims[claimKey("user-1", voucherUUID)] = &fakeClaim{status: models.ClaimStatusClaimed}

	req := baseRequest()
	req.VoucherID = testVoucher
	req.Discount = 10

	result, err := NewOrchestrator(store).PlaceOrder(req)
	require.NoError(t, err)

	assert.InDelta(t, 109.70, result.Total, 0.001)
	assert.False(t, result.VoucherReplayed)

	claim := store.claims[claimKey("user-1", voucherUUID)]
	assert.Equal(t, models.ClaimStatusUsed, claim.status)
	require.NotNil(t, claim.orderID)
	assert.Equal(t, result.OrderID, *claim.orderID)
	assert.Equal(t, 1, store.usage[testVoucher], "used_count incrémenté exactement une fois")
}

func TestPlaceOrderVoucherReplayedSameOrder(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5

	outcome := RedeemAlreadyThisOrder
	store.forceRedeem = &outcome

	req := baseRequest()
	req.VoucherID = testVoucher
	req.Discount = 10

	result, err := NewOrchestrator(store).PlaceOrder(req)
	require.NoError(t, err)

	assert.True(t, result.VoucherReplayed)
	assert.Equal(t, 0, store.usage[testVoucher], "pas de second incrément sur rejeu")
	assert.Equal(t, JournalCommitted, store.journal[result.OrderID])
}

func TestPlaceOrderVoucherAlreadyUsedElsewhere(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5

	voucherUUID, _ := gocql.ParseUUID(testVoucher)
	otherOrder := gocql.TimeUUID()
	store.claims[claimKey("user-1", voucherUUID)] = &fakeClaim{
		status:  models.ClaimStatusUsed,
		orderID: &otherOrder,
	}

	req := baseRequest()
	req.VoucherID = testVoucher
	req.Discount = 10

	_, err := NewOrchestrator(store).PlaceOrder(req)
	require.ErrorIs(t, err, ErrClaimNotClaimed)

	// Rollback complet, le stock redescendu est restauré
	assert.Empty(t, store.orders)
	assert.Empty(t, store.numbers)
	assert.Equal(t, 10, store.stock[testProductA])
	assert.Equal(t, 5, store.stock[testVariantA])
	assert.Equal(t, 0, store.usage[testVoucher])
}

func TestPlaceOrderRedeemStoreFailureIsAnError(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5
	store.redeemErr = errors.New("scylla: délai dépassé")

	req := baseRequest()
	req.VoucherID = testVoucher
	req.Discount = 10

	_, err := NewOrchestrator(store).PlaceOrder(req)

	// Une panne de persistance pendant la consommation du bon remonte telle
	// quelle, jamais confondue avec une réclamation absente
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClaimNotFound)
	assert.ErrorContains(t, err, "délai dépassé")

	assert.Empty(t, store.orders)
	assert.Empty(t, store.numbers)
	assert.Equal(t, 10, store.stock[testProductA])
	assert.Equal(t, 5, store.stock[testVariantA])
}

func TestPlaceOrderVoucherNeverClaimed(t *testing.T) {
	store := newFakeStore()
	store.stock[testProductA] = 10
	store.stock[testVariantA] = 5

	req := baseRequest()
	req.VoucherID = testVoucher
	req.Discount = 10

	_, err := NewOrchestrator(store).PlaceOrder(req)
	require.ErrorIs(t, err, ErrClaimNotFound)
	assert.Empty(t, store.orders)
	assert.Equal(t, 10, store.stock[testProductA])
}
