package database

import (
	"log"

	"github.com/gocql/gocql"
)

// CQL des chemins chauds (lecture catalogue, checkout). Une session gocql
// prépare chaque texte de requête une seule fois et met le statement en cache
// côté driver : réutiliser ces constantes via session.Query suffit, sans
// partager de *gocql.Query entre goroutines (Bind muterait la même requête
// depuis plusieurs requêtes HTTP concurrentes).
const (
	// Lecture produit complète (cache, fiche produit)
	CQLGetProductByID = `SELECT product_id, name, description, price, stock, category_id, image_urls, tags, has_variants, low_stock_threshold, is_active, created_at, updated_at
		FROM products WHERE product_id = ?`

	// Lecture variante pour l'ajout au panier
	CQLGetVariantPrice = `SELECT product_id, price, is_active FROM product_variants WHERE id = ?`

	// Insertion de l'en-tête de commande
	CQLInsertOrder = `INSERT INTO orders (order_id, order_number, user_id, payment_method, subtotal, discount, total, voucher_id,
		delivery_name, delivery_phone, delivery_email, delivery_address, status, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Insertion d'une ligne de commande
	CQLInsertOrderItem = `INSERT INTO order_items (order_id, item_id, product_id, variant_id, name, price, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// InitPreparedStatements pré-chauffe les statements de lecture du chemin
// chaud : la première exécution de chaque texte de requête déclenche le
// prepare côté serveur, autant la payer au démarrage qu'à la première
// commande. Les insertions sont préparées à leur premier usage.
func InitPreparedStatements() {
	session, err := GetProductsSession()
	if err != nil {
		log.Printf("⚠️ Impossible de pré-chauffer les prepared statements: %v", err)
		return
	}

	for _, cql := range []string{CQLGetProductByID, CQLGetVariantPrice} {
		iter := session.Query(cql, gocql.UUID{}).Iter()
		if err := iter.Close(); err != nil {
			log.Printf("⚠️ Pré-chauffage prepared statement échoué: %v", err)
		}
	}

	log.Println("✅ Prepared statements initialisés")
}
