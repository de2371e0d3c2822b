package billing

import (
	"context"
)

// Gateway defines the interface to the external billing provider. All ids
// are opaque provider identifiers; subscription and payment-method state
// lives entirely on the provider side and is never duplicated locally.
type Gateway interface {
	// CreateCustomer creates a billing customer for a company
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)

	// GetCustomer retrieves a customer by id
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)

	// ListPaymentMethods lists the payment methods attached to a customer
	ListPaymentMethods(ctx context.Context, customerID string) ([]*PaymentMethod, error)

	// GetPaymentMethod retrieves one of a customer's payment methods
	GetPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*PaymentMethod, error)

	// ConfirmPaymentMethodSetup creates and auto-confirms a setup intent
	// binding the payment method to the customer
	ConfirmPaymentMethodSetup(ctx context.Context, customerID, paymentMethodID string) error

	// SetDefaultPaymentMethod sets the customer's invoice-level default
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	// DetachPaymentMethod detaches a payment method from its customer
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error

	// ListSubscriptions lists a customer's subscriptions matching the query
	ListSubscriptions(ctx context.Context, query *SubscriptionQuery) ([]*Subscription, error)

	// CreateSubscription creates a new subscription
	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error)

	// SetSubscriptionPaymentMethod updates a subscription's default payment method
	SetSubscriptionPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) error

	// CancelSubscription cancels a subscription immediately with invoicing
	// and proration
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// AddSubscriptionItem adds a priced item to an existing subscription
	AddSubscriptionItem(ctx context.Context, subscriptionID, priceID string) error

	// RemoveSubscriptionItem deletes a subscription line item with
	// proration invoicing and usage clearing
	RemoveSubscriptionItem(ctx context.Context, itemID string) error

	// FinalizeDraftInvoices finalizes every draft invoice of a subscription
	FinalizeDraftInvoices(ctx context.Context, subscriptionID string) error

	// GetPrice retrieves a price by id
	GetPrice(ctx context.Context, priceID string) (*Price, error)

	// ListPrices lists all prices with tier data
	ListPrices(ctx context.Context) ([]*Price, error)

	// ListProducts lists all products with their default price
	ListProducts(ctx context.Context) ([]*Product, error)

	// CreateConnectedAccount provisions a payment-recipient account and an
	// onboarding link for a company
	CreateConnectedAccount(ctx context.Context, req *CreateAccountRequest) (*CreateAccountResult, error)

	// GetAccount retrieves a connected account
	GetAccount(ctx context.Context, accountID string) (*Account, error)

	// CreateAccountLink creates an onboarding/update link for a connected account
	CreateAccountLink(ctx context.Context, accountID, returnURL string) (string, error)

	// CreateDashboardLink creates a dashboard login link for a connected account
	CreateDashboardLink(ctx context.Context, accountID string) (string, error)

	// CreateTerminalConnectionToken issues a terminal connection token
	CreateTerminalConnectionToken(ctx context.Context) (string, error)

	// Name returns the gateway name
	Name() string
}

// SubscriptionStatus is the provider-side subscription state
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
)

// IsActive reports whether the status counts as a good standing state
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// CreateCustomerRequest carries the data for a new billing customer
type CreateCustomerRequest struct {
	Name      string
	Email     string
	CompanyID string
}

// Customer is the provider's representation of a company's payable account
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Deleted is true when the record was removed on the provider side
	Deleted bool `json:"deleted"`
	// DefaultPaymentMethodID is the invoice-level default, empty when none
	DefaultPaymentMethodID string `json:"default_payment_method_id"`
}

// PaymentMethod is an attached payment instrument
type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// SubscriptionItem is one priced line of a subscription
type SubscriptionItem struct {
	ID      string `json:"id"`
	PriceID string `json:"price_id"`
}

// Subscription mirrors the provider's subscription object
type Subscription struct {
	ID         string             `json:"id"`
	Status     SubscriptionStatus `json:"status"`
	TrialStart int64              `json:"trial_start,omitempty"`
	Items      []SubscriptionItem `json:"items"`
}

// HadTrialStart reports whether the subscription carries a trial-start marker
func (s *Subscription) HadTrialStart() bool {
	return s.TrialStart > 0
}

// SubscriptionQuery filters ListSubscriptions
type SubscriptionQuery struct {
	CustomerID string
	// PriceID restricts to subscriptions carrying the price, when set
	PriceID string
	// AnyStatus includes subscriptions in every status, not just current ones
	AnyStatus bool
}

// CreateSubscriptionRequest carries the data for a new subscription
type CreateSubscriptionRequest struct {
	CustomerID string
	PriceID    string
	// BillingCycleAnchor is a unix timestamp for the first full billing cycle
	BillingCycleAnchor int64
	// TrialPeriodDays grants a trial when > 0; the subscription cancels if
	// the trial ends without a payment method
	TrialPeriodDays int64
}

// Price is a subscription price
type Price struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Nickname   string `json:"nickname,omitempty"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unit_amount"`
}

// Product is a subscription product
type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	DefaultPriceID string `json:"default_price_id,omitempty"`
}

// CreateAccountRequest carries the data for a new connected account
type CreateAccountRequest struct {
	Name      string
	Email     string
	CompanyID string
	ReturnURL string
}

// CreateAccountResult is the provisioned account plus its onboarding link
type CreateAccountResult struct {
	Account       *Account
	OnboardingURL string
}

// Account is the provider's payment-recipient account for a company
type Account struct {
	ID             string `json:"id"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
	ChargesEnabled bool   `json:"charges_enabled"`
}
