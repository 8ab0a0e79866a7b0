package checkout

import (
	"velora_back_end/internal/models"

	"github.com/gocql/gocql"
)

// RedeemOutcome est le résultat d'une tentative de consommation de bon.
type RedeemOutcome int

const (
	// RedeemApplied : transition claimed → used effectuée par cet appel.
	RedeemApplied RedeemOutcome = iota
	// RedeemAlreadyThisOrder : la réclamation a déjà été consommée par cette
	// même commande (requête rejouée). Idempotent, pas de second incrément.
	RedeemAlreadyThisOrder
	// RedeemWrongState : la réclamation n'est pas à l'état claimed.
	RedeemWrongState
	// RedeemNotFound : aucune réclamation pour cet utilisateur et ce bon.
	RedeemNotFound
)

// États du journal de compensation
const (
	JournalStarted     = "started"
	JournalCommitted   = "committed"
	JournalCompensated = "compensated"
)

// Store est la surface de persistance dont l'orchestrateur a besoin.
// L'implémentation ScyllaDB est dans store_scylla.go ; les tests utilisent
// une implémentation en mémoire.
type Store interface {
	// Réservation du numéro de commande lisible (insertion conditionnelle).
	// Retourne false sans erreur en cas de collision.
	ReserveOrderNumber(number string, orderID gocql.UUID) (bool, error)
	ReleaseOrderNumber(number string) error

	// Journal de compensation keyed par commande.
	JournalStart(orderID gocql.UUID, userID string) error
	JournalFinish(orderID gocql.UUID, state string) error

	// Commande et lignes.
	InsertOrder(order *models.Order) error
	DeleteOrder(orderID gocql.UUID) error
	InsertOrderItem(item *models.OrderItem) error
	DeleteOrderItems(orderID gocql.UUID) error

	// Décrément conditionnel atomique du stock : échoue avec
	// InsufficientStockError si le stock est insuffisant, NotFoundError si la
	// variante (ou le produit) n'existe pas. Retourne le stock avant décrément.
	DecrementStock(productID, variantID string, quantity int) (prevStock int, err error)

	// Restauration de stock (compensation et remboursements). Converge toujours
	// si la ligne existe.
	RestoreStock(productID, variantID string, quantity int) error

	RecordStockMovement(movement *models.StockMovement) error

	// Consommation d'un bon : transition claimed → used avec horodatage et
	// commande associée, en une écriture conditionnelle.
	RedeemClaim(userID string, voucherID, orderID gocql.UUID) (RedeemOutcome, error)
	RevertClaim(userID string, voucherID gocql.UUID) error

	// Ajustement du compteur global used_count (+1 à la consommation,
	// -1 à la compensation).
	AdjustVoucherUsage(voucherID gocql.UUID, delta int) error
}
