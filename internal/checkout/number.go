package checkout

import (
	"fmt"
	"math/rand"

	"github.com/gocql/gocql"
)

const (
	// Préfixe fixe des numéros de commande lisibles par le client
	orderNumberPrefix = "CMD-"

	// Nombre maximum de tentatives en cas de collision de suffixe
	maxNumberAttempts = 5
)

// GenerateOrderNumber retourne un candidat : préfixe fixe + 6 chiffres aléatoires.
// L'unicité n'est PAS garantie ici, elle est obtenue par l'insertion
// conditionnelle dans orders_by_number.
func GenerateOrderNumber() string {
	return fmt.Sprintf("%s%06d", orderNumberPrefix, rand.Intn(1000000))
}

// reserveNumber génère des candidats et tente de les réserver via une
// insertion IF NOT EXISTS, jusqu'à maxNumberAttempts tentatives.
func (o *Orchestrator) reserveNumber(orderID gocql.UUID) (string, error) {
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number := GenerateOrderNumber()

		applied, err := o.store.ReserveOrderNumber(number, orderID)
		if err != nil {
			return "", err
		}
		if applied {
			return number, nil
		}
		// Collision : un autre checkout a pris ce numéro, on retente
	}
	return "", ErrNumberExhausted
}
