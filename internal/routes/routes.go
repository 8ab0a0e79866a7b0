package routes

import (
	"github.com/gin-gonic/gin"

	"velora_back_end/internal/handlers/admin"
	"velora_back_end/internal/handlers/payement"
	"velora_back_end/internal/handlers/product"
	"velora_back_end/internal/handlers/user"
	"velora_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// Catalogue public
	api.GET("/products", product.GetAllProducts)
	api.GET("/products/:id", product.GetProduct)
	api.GET("/products/:id/variants", product.GetProductVariants)
	api.GET("/products/:id/images", product.GetProductImages)
	api.GET("/search", middleware.SearchRateLimit(), product.SearchProducts)

	// Webhook Stripe : signé, pas de JWT
	api.POST("/stripe/webhook", payement.StripeWebhook)

	// Routes authentifiées
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		// Panier
		auth.GET("/cart", user.GetCart)
		auth.POST("/cart", middleware.CartRateLimit(), user.AddToCart)
		auth.PUT("/cart", middleware.CartRateLimit(), user.UpdateCartQuantity)
		auth.DELETE("/cart/:productId", user.RemoveFromCart)
		auth.DELETE("/cart", user.ClearCart)

		// Checkout
		auth.POST("/checkout", middleware.CheckoutRateLimit(), payement.Checkout)
		auth.POST("/checkout/remove-purchased", user.RemovePurchasedItems)

		// Commandes
		auth.GET("/orders", user.GetMyOrders)
		auth.GET("/orders/:id", user.GetOrderByID)
		auth.POST("/orders/:id/pay", payement.CreateOrderPaymentIntent)
		auth.GET("/orders/:id/track", user.TrackOrder)
		auth.GET("/orders/:id/tracking-qr", user.TrackingQRCode)

		// Bons de réduction
		auth.POST("/vouchers/claim", payement.ClaimVoucher)
		auth.GET("/vouchers/validate", payement.ValidateVoucher)

		// Remboursements
		auth.POST("/orders/:id/refund", payement.RequestRefund)
		auth.GET("/refunds", payement.GetUserRefunds)
	}

	// Routes administrateur
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		adminGroup.POST("/products", product.CreateProduct)
		adminGroup.PUT("/products/:id", product.UpdateProduct)
		adminGroup.DELETE("/products/:id", product.DeleteProduct)
		adminGroup.POST("/products/:id/variants", product.CreateProductVariant)
		adminGroup.PUT("/variants/:variantId", product.UpdateProductVariant)
		adminGroup.DELETE("/variants/:variantId", product.DeleteProductVariant)
		adminGroup.POST("/products/:id/images", product.UploadProductImage)
		adminGroup.DELETE("/products/:id/images", product.DeleteProductImage)

		// Inventaire
		adminGroup.PUT("/products/:id/stock", product.UpdateStock)
		adminGroup.GET("/stock/movements", product.GetStockMovements)
		adminGroup.GET("/stock/alerts", product.GetLowStockAlerts)
		adminGroup.PUT("/stock/alerts/:id/resolve", product.ResolveStockAlert)

		// Commandes
		adminGroup.GET("/orders", admin.GetAllOrders)
		adminGroup.PUT("/orders/:id/status", admin.UpdateOrderStatus)
		adminGroup.POST("/orders/:id/position", user.UpdateOrderPosition)

		// Remboursements
		adminGroup.GET("/refunds", payement.GetAllRefunds)
		adminGroup.PUT("/refunds/:refundId", payement.ProcessRefund)
	}
}
