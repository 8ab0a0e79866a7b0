package payement

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velora_back_end/internal/database"
	"velora_back_end/internal/models"
)

// loadVoucherByCode cherche un bon par son code promo
func loadVoucherByCode(code string) (*models.Voucher, error) {
	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, err
	}

	var v models.Voucher
	err = session.Query(`
		SELECT id, code, type, value, min_amount, max_amount, max_uses, used_count,
		       starts_at, expires_at, is_active
		FROM vouchers WHERE code = ? ALLOW FILTERING`,
		code).Scan(&v.ID, &v.Code, &v.Type, &v.Value, &v.MinAmount, &v.MaxAmount,
		&v.MaxUses, &v.UsedCount, &v.StartsAt, &v.ExpiresAt, &v.IsActive)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// checkVoucher vérifie qu'un bon est utilisable pour un montant donné,
// sans regarder les réclamations. Retourne un message d'erreur vide si OK.
func checkVoucher(v *models.Voucher, cartTotal float64) string {
	now := time.Now()
	if !v.IsActive {
		return "Ce bon n'est plus actif"
	}
	if now.Before(v.StartsAt) {
		return "Ce bon n'est pas encore valide"
	}
	if now.After(v.ExpiresAt) {
		return "Ce bon a expiré"
	}
	if v.MaxUses > 0 && v.UsedCount >= v.MaxUses {
		return "Ce bon a atteint son nombre maximum d'utilisations"
	}
	if cartTotal < v.MinAmount {
		return fmt.Sprintf("Montant minimum de %.2f€ requis pour ce bon", v.MinAmount)
	}
	return ""
}

// ClaimVoucher réclame un bon pour l'utilisateur connecté.
// L'insertion conditionnelle garantit une seule réclamation par (user, voucher).
func ClaimVoucher(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code du bon requis"})
		return
	}

	voucher, err := loadVoucherByCode(req.Code)
	if err == gocql.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bon introuvable"})
		return
	}
	if err != nil {
		log.Printf("❌ Erreur recherche bon %s: %v", req.Code, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	if msg := checkVoucher(voucher, voucher.MinAmount); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	applied, err := session.Query(`
		INSERT INTO voucher_claims (user_id, voucher_id, status, claimed_at)
		VALUES (?, ?, ?, ?) IF NOT EXISTS`,
		userID, voucher.ID, models.ClaimStatusClaimed, time.Now()).
		MapScanCAS(map[string]interface{}{})
	if err != nil {
		log.Printf("❌ Erreur réclamation bon %s pour %s: %v", req.Code, userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}
	if !applied {
		c.JSON(http.StatusConflict, gin.H{"error": "Vous avez déjà réclamé ce bon"})
		return
	}

	log.Printf("🎟️ Bon %s réclamé par %s", voucher.Code, userID)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Bon réclamé avec succès",
		"voucher_id": voucher.ID.String(),
		"code":       voucher.Code,
	})
}

// validateVoucherForUser valide un bon pour un utilisateur et un total de
// panier : le bon doit être utilisable ET réclamé (non consommé) par cet
// utilisateur.
func validateVoucherForUser(code, userID string, cartTotal float64) (*models.Voucher, models.VoucherValidation) {
	voucher, err := loadVoucherByCode(code)
	if err != nil {
		return nil, models.VoucherValidation{IsValid: false, ErrorMessage: "Bon introuvable"}
	}

	if msg := checkVoucher(voucher, cartTotal); msg != "" {
		return nil, models.VoucherValidation{IsValid: false, ErrorMessage: msg}
	}

	session, err := database.GetOrdersSession()
	if err != nil {
		return nil, models.VoucherValidation{IsValid: false, ErrorMessage: "Erreur serveur"}
	}

	var status string
	err = session.Query(`
		SELECT status FROM voucher_claims WHERE user_id = ? AND voucher_id = ?`,
		userID, voucher.ID).Scan(&status)
	if err == gocql.ErrNotFound {
		return nil, models.VoucherValidation{IsValid: false, ErrorMessage: "Vous n'avez pas réclamé ce bon"}
	}
	if err != nil {
		return nil, models.VoucherValidation{IsValid: false, ErrorMessage: "Erreur serveur"}
	}
	if status != models.ClaimStatusClaimed {
		return nil, models.VoucherValidation{IsValid: false, ErrorMessage: "Ce bon a déjà été utilisé"}
	}

	return voucher, models.VoucherValidation{
		IsValid:  true,
		Discount: computeDiscount(*voucher, cartTotal),
		Type:     voucher.Type,
		Code:     voucher.Code,
	}
}

// ValidateVoucher vérifie un bon pour le panier courant et renvoie la remise
func ValidateVoucher(c *gin.Context) {
	userID := c.GetString("user_id")

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code du bon requis"})
		return
	}
	cartTotal, err := strconv.ParseFloat(c.DefaultQuery("cart_total", "0"), 64)
	if err != nil || cartTotal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Total du panier invalide"})
		return
	}

	voucher, validation := validateVoucherForUser(code, userID, cartTotal)
	if !validation.IsValid {
		c.JSON(http.StatusOK, validation)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_valid":   true,
		"voucher_id": voucher.ID.String(),
		"code":       validation.Code,
		"type":       validation.Type,
		"discount":   validation.Discount,
	})
}
