package server

import (
	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/config"
	"github.com/joshnosal/tip-driver-api/internal/di"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/middleware"
)

// publicPaths are reachable without a bearer token. Everything else
// requires an authenticated user.
var publicPaths = []string{
	"/health",
	"/stripe/prices",
	"/stripe/products",
	"/stripe/public_key",
	"/terminal/connection_token",
}

// NewRouter builds the gin engine with middleware and all routes wired
// against the container's handlers.
func NewRouter(cfg *config.Config, c *di.Container, rateLimit middleware.RateLimitConfig) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(&middleware.CORSConfig{}))
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimiter(rateLimit))
	r.Use(middleware.Auth(&middleware.AuthConfig{
		Secret:    cfg.JWT.Secret,
		SkipPaths: publicPaths,
	}))

	adminGate := middleware.CompanyContext(c.AuthService, domain.RoleAdmin)
	memberGate := middleware.CompanyContext(c.AuthService, domain.RoleBasic)

	r.GET("/health", c.HealthHandler.Check)

	user := r.Group("/user")
	{
		user.GET("/companies", c.CompanyHandler.ListMine)
	}

	app := r.Group("/app")
	{
		app.GET("/validate", c.SessionHandler.Validate)
	}

	company := r.Group("/company")
	{
		company.POST("/new", c.CompanyHandler.Create)
		company.GET("/company", memberGate, c.CompanyHandler.Get)
		company.GET("/promote_user", adminGate, c.CompanyHandler.Promote)
		company.GET("/demote_user", adminGate, c.CompanyHandler.Demote)
		company.POST("/remove_users", adminGate, c.CompanyHandler.RemoveUsers)
		company.POST("/add_user", adminGate, c.CompanyHandler.AddUser)
		company.POST("/update", adminGate, c.CompanyHandler.Update)
	}

	device := r.Group("/device")
	{
		device.GET("/devices", adminGate, c.DeviceHandler.List)
		// Lookup only needs membership: kiosks run under basic users.
		device.GET("/device", memberGate, c.DeviceHandler.Get)
		device.POST("/new", adminGate, c.DeviceHandler.Register)
	}

	subscription := r.Group("/subscription", adminGate)
	{
		subscription.GET("/start", c.BillingHandler.StartSubscription)
		subscription.GET("/stop", c.BillingHandler.StopSubscription)
		// Legacy alias kept for older kiosk builds.
		subscription.GET("/pause", c.BillingHandler.StopSubscription)
		subscription.GET("/had_trial", c.BillingHandler.HadTrial)
		subscription.GET("/customer_subscriptions", c.BillingHandler.CustomerSubscriptions)
	}

	stripe := r.Group("/stripe")
	{
		stripe.GET("/prices", c.BillingHandler.Prices)
		stripe.GET("/products", c.BillingHandler.Products)
		stripe.GET("/public_key", c.BillingHandler.PublicKey)

		stripe.GET("/account", adminGate, c.BillingHandler.Account)
		stripe.GET("/payment_method", adminGate, c.BillingHandler.PaymentMethod)
		stripe.GET("/add_payment_method", adminGate, c.BillingHandler.AddPaymentMethod)
		stripe.GET("/delete_payment_method", adminGate, c.BillingHandler.DeletePaymentMethod)
		stripe.GET("/create_account", adminGate, c.BillingHandler.CreateAccount)
		stripe.GET("/update_link", adminGate, c.BillingHandler.UpdateLink)
		stripe.GET("/dashboard_link", adminGate, c.BillingHandler.DashboardLink)
	}

	terminal := r.Group("/terminal")
	{
		terminal.GET("/connection_token", c.BillingHandler.ConnectionToken)
	}

	return r
}
