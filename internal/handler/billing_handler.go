package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/middleware"
	"github.com/joshnosal/tip-driver-api/internal/service"
	"github.com/joshnosal/tip-driver-api/pkg/response"
)

// BillingHandler handles subscription, payment method, and connected
// account HTTP requests
type BillingHandler struct {
	billingService service.BillingService
	publicKey      string
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService service.BillingService, publicKey string) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		publicKey:      publicKey,
	}
}

// StartSubscription subscribes the company to a price
// GET /subscription/start, price in the priceId header
func (h *BillingHandler) StartSubscription(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	priceID := c.GetHeader("priceId")

	if err := h.billingService.StartSubscription(c.Request.Context(), company, priceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{}))
}

// StopSubscription unsubscribes the company from a price
// GET /subscription/stop, price in the priceId header
func (h *BillingHandler) StopSubscription(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	priceID := c.GetHeader("priceId")

	if err := h.billingService.StopSubscription(c.Request.Context(), company, priceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{}))
}

// HadTrial reports whether the company ever held a trial
// GET /subscription/had_trial
func (h *BillingHandler) HadTrial(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	had, err := h.billingService.HadTrial(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(had))
}

// CustomerSubscriptions lists the company's current subscriptions
// GET /subscription/customer_subscriptions
func (h *BillingHandler) CustomerSubscriptions(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	subscriptions, err := h.billingService.CustomerSubscriptions(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(subscriptions))
}

// PaymentMethod returns the company's default payment method, null when none
// GET /stripe/payment_method
func (h *BillingHandler) PaymentMethod(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	pm, err := h.billingService.DefaultPaymentMethod(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(pm))
}

// AddPaymentMethod attaches a new payment method and retires the old ones
// GET /stripe/add_payment_method, method in the paymentMethodId header
func (h *BillingHandler) AddPaymentMethod(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	paymentMethodID := c.GetHeader("paymentMethodId")

	if err := h.billingService.AttachPaymentMethod(c.Request.Context(), company, paymentMethodID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{}))
}

// DeletePaymentMethod winds down billing and detaches the default method
// GET /stripe/delete_payment_method
func (h *BillingHandler) DeletePaymentMethod(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	if err := h.billingService.RemovePaymentMethod(c.Request.Context(), company); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{}))
}

// Account returns the connected account status, null when none exists
// GET /stripe/account
func (h *BillingHandler) Account(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	account, err := h.billingService.AccountStatus(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(account))
}

// CreateAccount provisions a connected account and returns the onboarding URL
// GET /stripe/create_account, return url in the redirectUrl header
func (h *BillingHandler) CreateAccount(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	userID, _ := middleware.GetUserID(c)
	redirectURL := c.GetHeader("redirectUrl")

	url, err := h.billingService.CreateConnectedAccount(c.Request.Context(), company, userID, redirectURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(url))
}

// UpdateLink returns an account-update onboarding link
// GET /stripe/update_link, return url in the redirectUrl header
func (h *BillingHandler) UpdateLink(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	redirectURL := c.GetHeader("redirectUrl")

	link, err := h.billingService.UpdateLink(c.Request.Context(), company, redirectURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(link))
}

// DashboardLink returns a dashboard login link for the connected account
// GET /stripe/dashboard_link
func (h *BillingHandler) DashboardLink(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	link, err := h.billingService.DashboardLink(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(link))
}

// Prices lists all subscription prices; public
// GET /stripe/prices
func (h *BillingHandler) Prices(c *gin.Context) {
	prices, err := h.billingService.ListPrices(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(prices))
}

// Products lists all subscription products; public
// GET /stripe/products
func (h *BillingHandler) Products(c *gin.Context) {
	products, err := h.billingService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(products))
}

// PublicKey returns the publishable client key
// GET /stripe/public_key
func (h *BillingHandler) PublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(h.publicKey))
}

// ConnectionToken issues a card-reader connection token
// GET /terminal/connection_token
func (h *BillingHandler) ConnectionToken(c *gin.Context) {
	token, err := h.billingService.TerminalConnectionToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(token))
}
