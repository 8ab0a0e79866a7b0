package checkout

import (
	"log"
	"time"

	"velora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// LineItem est une ligne du checkout telle qu'envoyée par le front.
// Le prix est figé ici et restera le snapshot de la commande.
type LineItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type DeliveryInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Request struct {
	UserID        string
	Items         []LineItem
	PaymentMethod string // "card" ou "cod"
	Delivery      DeliveryInfo
	VoucherID     string  // optionnel
	Discount      float64 // remise pré-calculée, 0 par défaut
	Source        string  // "cart" ou "buy_now"
}

type Result struct {
	OrderID     gocql.UUID
	OrderNumber string
	Subtotal    float64
	Discount    float64
	Total       float64

	// VoucherReplayed : le bon avait déjà été consommé par cette même commande
	// (requête rejouée), le compteur n'a pas été réincrémenté.
	VoucherReplayed bool
}

// Orchestrator enchaîne les écritures d'un placement de commande : en-tête,
// lignes, décréments de stock, consommation du bon. Tout ou rien : chaque
// écriture réussie empile sa compensation, exécutée en ordre inverse au
// premier échec.
type Orchestrator struct {
	store Store
	now   func() time.Time
}

func NewOrchestrator(store Store) *Orchestrator {
	return &Orchestrator{store: store, now: time.Now}
}

// PlaceOrder valide la requête, calcule les totaux et persiste la commande.
// Retourne l'identifiant et le numéro de la nouvelle commande.
func (o *Orchestrator) PlaceOrder(req *Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	subtotal := Subtotal(req.Items)
	if req.Discount > subtotal {
		return nil, &ValidationError{Field: "discount", Message: "la remise dépasse le sous-total"}
	}
	total := subtotal - req.Discount

	var voucherID *gocql.UUID
	if req.VoucherID != "" {
		parsed, _ := gocql.ParseUUID(req.VoucherID) // déjà validé
		voucherID = &parsed
	}

	orderID := gocql.TimeUUID()
	now := o.now()

	comp := newCompensation()
	fail := func(cause error) (*Result, error) {
		comp.run()
		if err := o.store.JournalFinish(orderID, JournalCompensated); err != nil {
			log.Printf("⚠️ Impossible de marquer le journal compensé pour %s: %v", orderID, err)
		}
		return nil, cause
	}

	// 1. Journal de compensation : ouvert avant la première écriture métier
	if err := o.store.JournalStart(orderID, req.UserID); err != nil {
		return nil, err
	}

	// 2. Numéro de commande lisible, réservé par insertion conditionnelle
	number, err := o.reserveNumber(orderID)
	if err != nil {
		return fail(err)
	}
	comp.push("numéro de commande", func() error {
		return o.store.ReleaseOrderNumber(number)
	})

	// 3. En-tête de commande en statut pending
	order := &models.Order{
		ID:              orderID,
		OrderNumber:     number,
		UserID:          req.UserID,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        subtotal,
		Discount:        req.Discount,
		Total:           total,
		VoucherID:       voucherID,
		DeliveryName:    req.Delivery.Name,
		DeliveryPhone:   req.Delivery.Phone,
		DeliveryEmail:   req.Delivery.Email,
		DeliveryAddress: req.Delivery.Address,
		Status:          models.OrderStatusPending,
		Source:          req.Source,
		CreatedAt:       now,
	}
	if err := o.store.InsertOrder(order); err != nil {
		return fail(err)
	}
	comp.push("en-tête de commande", func() error {
		return o.store.DeleteOrder(orderID)
	})

	// 4. Lignes de commande (snapshot nom + prix)
	comp.push("lignes de commande", func() error {
		return o.store.DeleteOrderItems(orderID)
	})
	for _, item := range req.Items {
		productUUID, _ := gocql.ParseUUID(item.ProductID)
		var variantUUID *gocql.UUID
		if item.VariantID != "" {
			parsed, _ := gocql.ParseUUID(item.VariantID)
			variantUUID = &parsed
		}

		line := &models.OrderItem{
			OrderID:   orderID,
			ItemID:    gocql.TimeUUID(),
			ProductID: productUUID,
			VariantID: variantUUID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		}
		if err := o.store.InsertOrderItem(line); err != nil {
			return fail(err)
		}
	}

	// 5. Décréments de stock : un CAS par ligne, échec = compensation totale
	var movements []models.StockMovement
	for _, item := range req.Items {
		item := item
		prevStock, err := o.store.DecrementStock(item.ProductID, item.VariantID, item.Quantity)
		if err != nil {
			return fail(err)
		}
		comp.push("stock "+item.ProductID, func() error {
			return o.store.RestoreStock(item.ProductID, item.VariantID, item.Quantity)
		})

		productUUID, _ := gocql.ParseUUID(item.ProductID)
		movement := models.StockMovement{
			ID:        gocql.TimeUUID(),
			ProductID: productUUID,
			Type:      "sale",
			Quantity:  item.Quantity,
			PrevStock: prevStock,
			NewStock:  prevStock - item.Quantity,
			Reason:    "commande " + number,
			OrderID:   &orderID,
			UserID:    req.UserID,
			CreatedAt: now,
		}
		if item.VariantID != "" {
			parsed, _ := gocql.ParseUUID(item.VariantID)
			movement.VariantID = &parsed
		}
		movements = append(movements, movement)
	}

	// 6. Consommation du bon, exactement une fois
	replayed := false
	if voucherID != nil {
		outcome, err := o.store.RedeemClaim(req.UserID, *voucherID, orderID)
		if err != nil {
			return fail(err)
		}
		switch outcome {
		case RedeemApplied:
			comp.push("réclamation de bon", func() error {
				return o.store.RevertClaim(req.UserID, *voucherID)
			})
			if err := o.store.AdjustVoucherUsage(*voucherID, 1); err != nil {
				return fail(err)
			}
			comp.push("compteur de bon", func() error {
				return o.store.AdjustVoucherUsage(*voucherID, -1)
			})
		case RedeemAlreadyThisOrder:
			// Requête rejouée : la réclamation porte déjà cette commande,
			// on ne réincrémente pas used_count
			replayed = true
		case RedeemWrongState:
			return fail(ErrClaimNotClaimed)
		case RedeemNotFound:
			return fail(ErrClaimNotFound)
		}
	}

	// 7. Commit du journal
	if err := o.store.JournalFinish(orderID, JournalCommitted); err != nil {
		log.Printf("⚠️ Impossible de marquer le journal commité pour %s: %v", orderID, err)
	}

	// 8. Mouvements de stock, en best effort après commit
	for i := range movements {
		if err := o.store.RecordStockMovement(&movements[i]); err != nil {
			log.Printf("⚠️ Erreur enregistrement mouvement stock: %v", err)
		}
	}

	return &Result{
		OrderID:         orderID,
		OrderNumber:     number,
		Subtotal:        subtotal,
		Discount:        req.Discount,
		Total:           total,
		VoucherReplayed: replayed,
	}, nil
}
