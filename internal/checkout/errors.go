package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrNumberExhausted : impossible de réserver un numéro de commande unique
	// après plusieurs tentatives (collisions répétées).
	ErrNumberExhausted = errors.New("impossible de réserver un numéro de commande unique")

	// ErrStockContention : le CAS sur le stock a échoué trop de fois de suite.
	ErrStockContention = errors.New("trop de contention sur le stock, réessayez")

	// ErrClaimNotFound : l'utilisateur n'a jamais réclamé ce bon.
	ErrClaimNotFound = errors.New("aucune réclamation trouvée pour ce bon")

	// ErrClaimNotClaimed : la réclamation n'est pas à l'état 'claimed'
	// (déjà consommée par une autre commande).
	ErrClaimNotClaimed = errors.New("ce bon a déjà été utilisé")
)

// ValidationError : la requête est rejetée avant toute écriture.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s (%s)", e.Message, e.Field)
}

// NotFoundError : produit ou variante inconnu, rejet avant toute écriture sur la ligne.
type NotFoundError struct {
	Kind string // "product" ou "variant"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s introuvable: %s", e.Kind, e.ID)
}

// InsufficientStockError : le décrément conditionnel a constaté un stock insuffisant.
// Le checkout entier doit être compensé.
type InsufficientStockError struct {
	ProductID string
	VariantID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	id := e.ProductID
	if e.VariantID != "" {
		id = e.VariantID
	}
	return fmt.Sprintf("stock insuffisant pour %s: disponible %d, demandé %d", id, e.Available, e.Requested)
}
