package checkout

import (
	"time"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"

	"github.com/gocql/gocql"
)

const (
	// Nombre de tentatives CAS avant d'abandonner un décrément sous contention
	stockCASRetries = 8
	// Les restaurations convergent toujours, on retente plus longtemps
	restoreCASRetries = 20
	counterCASRetries = 10
)

// ScyllaStore implémente Store au-dessus des keyspaces products et orders.
// Les écritures conditionnelles passent par des LWT (IF ...), seule forme
// d'atomicité mono-ligne offerte par ScyllaDB.
type ScyllaStore struct{}

func NewScyllaStore() *ScyllaStore {
	return &ScyllaStore{}
}

func (s *ScyllaStore) ReserveOrderNumber(number string, orderID gocql.UUID) (bool, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return false, err
	}

	applied, err := session.Query(
		`INSERT INTO orders_by_number (order_number, order_id) VALUES (?, ?) IF NOT EXISTS`,
		number, orderID,
	).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *ScyllaStore) ReleaseOrderNumber(number string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM orders_by_number WHERE order_number = ?`, number).Exec()
}

func (s *ScyllaStore) JournalStart(orderID gocql.UUID, userID string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	now := time.Now()
	return session.Query(
		`INSERT INTO checkout_journal (order_id, user_id, state, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		orderID, userID, JournalStarted, now, now,
	).Exec()
}

func (s *ScyllaStore) JournalFinish(orderID gocql.UUID, state string) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(
		`UPDATE checkout_journal SET state = ?, updated_at = ? WHERE order_id = ?`,
		state, time.Now(), orderID,
	).Exec()
}

func (s *ScyllaStore) InsertOrder(order *models.Order) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	// session.Query crée une requête par appel (pas de *gocql.Query partagé
	// entre goroutines), le statement préparé est mis en cache par le driver
	return session.Query(database.CQLInsertOrder,
		order.ID, order.OrderNumber, order.UserID, order.PaymentMethod,
		order.Subtotal, order.Discount, order.Total, order.VoucherID,
		order.DeliveryName, order.DeliveryPhone, order.DeliveryEmail, order.DeliveryAddress,
		order.Status, order.Source, order.CreatedAt,
	).Exec()
}

func (s *ScyllaStore) DeleteOrder(orderID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM orders WHERE order_id = ?`, orderID).Exec()
}

func (s *ScyllaStore) InsertOrderItem(item *models.OrderItem) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(database.CQLInsertOrderItem,
		item.OrderID, item.ItemID, item.ProductID, item.VariantID,
		item.Name, item.Price, item.Quantity,
	).Exec()
}

func (s *ScyllaStore) DeleteOrderItems(orderID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(`DELETE FROM order_items WHERE order_id = ?`, orderID).Exec()
}

// stockTarget choisit la table selon que la ligne référence une variante ou
// directement le produit.
func stockTarget(productID, variantID string) (table, idColumn, id string) {
	if variantID != "" {
		return "product_variants", "id", variantID
	}
	return "products", "product_id", productID
}

// DecrementStock effectue un compare-and-set borné : lecture du stock,
// UPDATE ... IF stock = valeur lue. Deux checkouts concurrents ne peuvent
// jamais gagner les mêmes unités ; le perdant relit et retente.
func (s *ScyllaStore) DecrementStock(productID, variantID string, quantity int) (int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, err
	}

	table, idColumn, rawID := stockTarget(productID, variantID)
	id, err := gocql.ParseUUID(rawID)
	if err != nil {
		return 0, &NotFoundError{Kind: table, ID: rawID}
	}

	var stock int
	if err := session.Query(
		`SELECT stock FROM `+table+` WHERE `+idColumn+` = ?`, id,
	).Scan(&stock); err != nil {
		if err == gocql.ErrNotFound {
			kind := "product"
			if variantID != "" {
				kind = "variant"
			}
			return 0, &NotFoundError{Kind: kind, ID: rawID}
		}
		return 0, err
	}

	for attempt := 0; attempt < stockCASRetries; attempt++ {
		if stock < quantity {
			return 0, &InsufficientStockError{
				ProductID: productID,
				VariantID: variantID,
				Available: stock,
				Requested: quantity,
			}
		}

		var prev int
		applied, err := session.Query(
			`UPDATE `+table+` SET stock = ?, updated_at = ? WHERE `+idColumn+` = ? IF stock = ?`,
			stock-quantity, time.Now(), id, stock,
		).ScanCAS(&prev)
		if err != nil {
			return 0, err
		}
		if applied {
			return stock, nil
		}
		// Un autre checkout est passé entre-temps : on repart du stock réel
		stock = prev
	}

	return 0, ErrStockContention
}

// RestoreStock ré-augmente le stock (compensation ou remboursement approuvé).
// Inconditionnel sur le montant : converge tant que la ligne existe.
func (s *ScyllaStore) RestoreStock(productID, variantID string, quantity int) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	table, idColumn, rawID := stockTarget(productID, variantID)
	id, err := gocql.ParseUUID(rawID)
	if err != nil {
		return &NotFoundError{Kind: table, ID: rawID}
	}

	var stock int
	if err := session.Query(
		`SELECT stock FROM `+table+` WHERE `+idColumn+` = ?`, id,
	).Scan(&stock); err != nil {
		return err
	}

	for attempt := 0; attempt < restoreCASRetries; attempt++ {
		var prev int
		applied, err := session.Query(
			`UPDATE `+table+` SET stock = ?, updated_at = ? WHERE `+idColumn+` = ? IF stock = ?`,
			stock+quantity, time.Now(), id, stock,
		).ScanCAS(&prev)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		stock = prev
	}

	return ErrStockContention
}

func (s *ScyllaStore) RecordStockMovement(movement *models.StockMovement) error {
	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}
	return session.Query(
		`INSERT INTO stock_movements (id, product_id, variant_id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		movement.ID, movement.ProductID, movement.VariantID, movement.Type,
		movement.Quantity, movement.PrevStock, movement.NewStock, movement.Reason,
		movement.OrderID, movement.UserID, movement.CreatedAt,
	).Exec()
}

// RedeemClaim tente la transition claimed → used en un seul LWT. Si la
// condition échoue, l'état réel est relu pour distinguer une requête rejouée
// (même commande) d'une vraie double utilisation.
func (s *ScyllaStore) RedeemClaim(userID string, voucherID, orderID gocql.UUID) (RedeemOutcome, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return RedeemNotFound, err
	}

	var prevStatus string
	applied, err := session.Query(
		`UPDATE voucher_claims SET status = ?, used_at = ?, order_id = ?
			WHERE user_id = ? AND voucher_id = ? IF status = ?`,
		models.ClaimStatusUsed, time.Now(), orderID,
		userID, voucherID, models.ClaimStatusClaimed,
	).ScanCAS(&prevStatus)
	if err != nil {
		return RedeemNotFound, err
	}
	if applied {
		return RedeemApplied, nil
	}

	// Condition refusée : lecture de l'état réel
	var status string
	var existingOrder *gocql.UUID
	err = session.Query(
		`SELECT status, order_id FROM voucher_claims WHERE user_id = ? AND voucher_id = ?`,
		userID, voucherID,
	).Scan(&status, &existingOrder)
	if err == gocql.ErrNotFound {
		return RedeemNotFound, nil
	}
	if err != nil {
		return RedeemNotFound, err
	}
	if status == "" {
		return RedeemNotFound, nil
	}

	if status == models.ClaimStatusUsed && existingOrder != nil && *existingOrder == orderID {
		return RedeemAlreadyThisOrder, nil
	}
	return RedeemWrongState, nil
}

func (s *ScyllaStore) RevertClaim(userID string, voucherID gocql.UUID) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}
	return session.Query(
		`UPDATE voucher_claims SET status = ?, used_at = null, order_id = null
			WHERE user_id = ? AND voucher_id = ?`,
		models.ClaimStatusClaimed, userID, voucherID,
	).Exec()
}

func (s *ScyllaStore) AdjustVoucherUsage(voucherID gocql.UUID, delta int) error {
	session, err := database.GetOrdersSession()
	if err != nil {
		return err
	}

	var used int
	if err := session.Query(
		`SELECT used_count FROM vouchers WHERE id = ?`, voucherID,
	).Scan(&used); err != nil {
		return err
	}

	for attempt := 0; attempt < counterCASRetries; attempt++ {
		var prev int
		applied, err := session.Query(
			`UPDATE vouchers SET used_count = ?, updated_at = ? WHERE id = ? IF used_count = ?`,
			used+delta, time.Now(), voucherID, used,
		).ScanCAS(&prev)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		used = prev
	}

	return ErrStockContention
}
