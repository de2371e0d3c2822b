package billing

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeGateway implements Gateway using the Stripe API
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a new StripeGateway with the given secret key
func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("missing stripe secret key")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}

// CreateCustomer creates a billing customer for a company
func (g *StripeGateway) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(req.Name),
		Email: stripe.String(req.Email),
	}
	params.Context = ctx
	params.AddMetadata("tip_driver_id", req.CompanyID)

	cus, err := g.api.Customers.New(params)
	if err != nil {
		return nil, err
	}
	return toCustomer(cus), nil
}

// GetCustomer retrieves a customer by id
func (g *StripeGateway) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := g.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, err
	}
	return toCustomer(cus), nil
}

// ListPaymentMethods lists the payment methods attached to a customer
func (g *StripeGateway) ListPaymentMethods(ctx context.Context, customerID string) ([]*PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx

	methods := make([]*PaymentMethod, 0)
	iter := g.api.PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, toPaymentMethod(iter.PaymentMethod()))
	}
	return methods, iter.Err()
}

// GetPaymentMethod retrieves one of a customer's payment methods
func (g *StripeGateway) GetPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*PaymentMethod, error) {
	params := &stripe.PaymentMethodParams{}
	params.Context = ctx

	pm, err := g.api.PaymentMethods.Get(paymentMethodID, params)
	if err != nil {
		return nil, err
	}
	if pm.Customer == nil || pm.Customer.ID != customerID {
		return nil, fmt.Errorf("payment method %s does not belong to customer %s", paymentMethodID, customerID)
	}
	return toPaymentMethod(pm), nil
}

// ConfirmPaymentMethodSetup creates and auto-confirms a setup intent
// binding the payment method to the customer
func (g *StripeGateway) ConfirmPaymentMethodSetup(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.SetupIntentParams{
		Customer:      stripe.String(customerID),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.SetupIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx

	_, err := g.api.SetupIntents.New(params)
	return err
}

// SetDefaultPaymentMethod sets the customer's invoice-level default
func (g *StripeGateway) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx

	_, err := g.api.Customers.Update(customerID, params)
	return err
}

// DetachPaymentMethod detaches a payment method from its customer
func (g *StripeGateway) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	_, err := g.api.PaymentMethods.Detach(paymentMethodID, params)
	return err
}

// ListSubscriptions lists a customer's subscriptions matching the query
func (g *StripeGateway) ListSubscriptions(ctx context.Context, query *SubscriptionQuery) ([]*Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(query.CustomerID),
	}
	params.Context = ctx
	if query.AnyStatus {
		params.Status = stripe.String("all")
	}
	if query.PriceID != "" {
		params.Price = stripe.String(query.PriceID)
	}

	subs := make([]*Subscription, 0)
	iter := g.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, toSubscription(iter.Subscription()))
	}
	return subs, iter.Err()
}

// CreateSubscription creates a new subscription with automatic collection
func (g *StripeGateway) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer:         stripe.String(req.CustomerID),
		CollectionMethod: stripe.String("charge_automatically"),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(req.PriceID)},
		},
	}
	params.Context = ctx
	if req.BillingCycleAnchor > 0 {
		params.BillingCycleAnchor = stripe.Int64(req.BillingCycleAnchor)
	}
	if req.TrialPeriodDays > 0 {
		params.TrialPeriodDays = stripe.Int64(req.TrialPeriodDays)
		params.TrialSettings = &stripe.SubscriptionTrialSettingsParams{
			EndBehavior: &stripe.SubscriptionTrialSettingsEndBehaviorParams{
				MissingPaymentMethod: stripe.String("cancel"),
			},
		}
	}

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, err
	}
	return toSubscription(sub), nil
}

// SetSubscriptionPaymentMethod updates a subscription's default payment method
func (g *StripeGateway) SetSubscriptionPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) error {
	params := &stripe.SubscriptionParams{
		DefaultPaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	_, err := g.api.Subscriptions.Update(subscriptionID, params)
	return err
}

// CancelSubscription cancels a subscription immediately with invoicing and
// proration
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{
		InvoiceNow: stripe.Bool(true),
		Prorate:    stripe.Bool(true),
	}
	params.Context = ctx

	_, err := g.api.Subscriptions.Cancel(subscriptionID, params)
	return err
}

// AddSubscriptionItem adds a priced item to an existing subscription
func (g *StripeGateway) AddSubscriptionItem(ctx context.Context, subscriptionID, priceID string) error {
	params := &stripe.SubscriptionItemParams{
		Subscription: stripe.String(subscriptionID),
		Price:        stripe.String(priceID),
	}
	params.Context = ctx

	_, err := g.api.SubscriptionItems.New(params)
	return err
}

// RemoveSubscriptionItem deletes a subscription line item with proration
// invoicing and usage clearing
func (g *StripeGateway) RemoveSubscriptionItem(ctx context.Context, itemID string) error {
	params := &stripe.SubscriptionItemParams{
		ProrationBehavior: stripe.String("always_invoice"),
		ClearUsage:        stripe.Bool(true),
	}
	params.Context = ctx

	_, err := g.api.SubscriptionItems.Del(itemID, params)
	return err
}

// FinalizeDraftInvoices finalizes every draft invoice of a subscription
func (g *StripeGateway) FinalizeDraftInvoices(ctx context.Context, subscriptionID string) error {
	listParams := &stripe.InvoiceListParams{
		Subscription: stripe.String(subscriptionID),
		Status:       stripe.String("draft"),
	}
	listParams.Context = ctx

	iter := g.api.Invoices.List(listParams)
	for iter.Next() {
		finalizeParams := &stripe.InvoiceFinalizeInvoiceParams{}
		finalizeParams.Context = ctx
		if _, err := g.api.Invoices.FinalizeInvoice(iter.Invoice().ID, finalizeParams); err != nil {
			return err
		}
	}
	return iter.Err()
}

// GetPrice retrieves a price by id
func (g *StripeGateway) GetPrice(ctx context.Context, priceID string) (*Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx

	price, err := g.api.Prices.Get(priceID, params)
	if err != nil {
		return nil, err
	}
	return toPrice(price), nil
}

// ListPrices lists all prices with tier data
func (g *StripeGateway) ListPrices(ctx context.Context) ([]*Price, error) {
	params := &stripe.PriceListParams{}
	params.Context = ctx
	params.AddExpand("data.tiers")

	prices := make([]*Price, 0)
	iter := g.api.Prices.List(params)
	for iter.Next() {
		prices = append(prices, toPrice(iter.Price()))
	}
	return prices, iter.Err()
}

// ListProducts lists all products with their default price
func (g *StripeGateway) ListProducts(ctx context.Context) ([]*Product, error) {
	params := &stripe.ProductListParams{}
	params.Context = ctx
	params.AddExpand("data.default_price")

	products := make([]*Product, 0)
	iter := g.api.Products.List(params)
	for iter.Next() {
		products = append(products, toProduct(iter.Product()))
	}
	return products, iter.Err()
}

// CreateConnectedAccount provisions an express account with weekly Monday
// payouts, negative-balance debiting disabled, and card-payments plus
// transfers capabilities, then creates its onboarding link
func (g *StripeGateway) CreateConnectedAccount(ctx context.Context, req *CreateAccountRequest) (*CreateAccountResult, error) {
	params := &stripe.AccountParams{
		Type:         stripe.String("express"),
		BusinessType: stripe.String("company"),
		Country:      stripe.String("US"),
		Email:        stripe.String(req.Email),
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			Name:         stripe.String(req.Name),
			SupportEmail: stripe.String(req.Email),
		},
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
		Settings: &stripe.AccountSettingsParams{
			Payouts: &stripe.AccountSettingsPayoutsParams{
				Schedule: &stripe.AccountSettingsPayoutsScheduleParams{
					Interval:     stripe.String("weekly"),
					WeeklyAnchor: stripe.String("monday"),
				},
				DebitNegativeBalances: stripe.Bool(false),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("companyId", req.CompanyID)

	account, err := g.api.Accounts.New(params)
	if err != nil {
		return nil, err
	}

	link, err := g.CreateAccountLink(ctx, account.ID, req.ReturnURL)
	if err != nil {
		return nil, err
	}

	return &CreateAccountResult{
		Account:       toAccount(account),
		OnboardingURL: link,
	}, nil
}

// GetAccount retrieves a connected account
func (g *StripeGateway) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	account, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, err
	}
	return toAccount(account), nil
}

// CreateAccountLink creates an onboarding/update link for a connected account
func (g *StripeGateway) CreateAccountLink(ctx context.Context, accountID, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		Type:       stripe.String("account_onboarding"),
		RefreshURL: stripe.String(returnURL),
		ReturnURL:  stripe.String(returnURL),
	}
	params.Context = ctx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// CreateDashboardLink creates a dashboard login link for a connected account
func (g *StripeGateway) CreateDashboardLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.LoginLinkParams{
		Account: stripe.String(accountID),
	}
	params.Context = ctx

	link, err := g.api.LoginLinks.New(params)
	if err != nil {
		return "", err
	}
	return link.URL, nil
}

// CreateTerminalConnectionToken issues a terminal connection token
func (g *StripeGateway) CreateTerminalConnectionToken(ctx context.Context) (string, error) {
	params := &stripe.TerminalConnectionTokenParams{}
	params.Context = ctx

	token, err := g.api.TerminalConnectionTokens.New(params)
	if err != nil {
		return "", err
	}
	return token.Secret, nil
}

func toCustomer(cus *stripe.Customer) *Customer {
	out := &Customer{
		ID:      cus.ID,
		Email:   cus.Email,
		Deleted: cus.Deleted,
	}
	if cus.InvoiceSettings != nil && cus.InvoiceSettings.DefaultPaymentMethod != nil {
		out.DefaultPaymentMethodID = cus.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out
}

func toPaymentMethod(pm *stripe.PaymentMethod) *PaymentMethod {
	out := &PaymentMethod{
		ID:   pm.ID,
		Type: string(pm.Type),
	}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
		out.ExpMonth = pm.Card.ExpMonth
		out.ExpYear = pm.Card.ExpYear
	}
	return out
}

func toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:         sub.ID,
		Status:     SubscriptionStatus(sub.Status),
		TrialStart: sub.TrialStart,
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			si := SubscriptionItem{ID: item.ID}
			if item.Price != nil {
				si.PriceID = item.Price.ID
			}
			out.Items = append(out.Items, si)
		}
	}
	return out
}

func toPrice(price *stripe.Price) *Price {
	out := &Price{
		ID:         price.ID,
		Nickname:   price.Nickname,
		Currency:   string(price.Currency),
		UnitAmount: price.UnitAmount,
	}
	if price.Product != nil {
		out.ProductID = price.Product.ID
	}
	return out
}

func toProduct(product *stripe.Product) *Product {
	out := &Product{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
	}
	if product.DefaultPrice != nil {
		out.DefaultPriceID = product.DefaultPrice.ID
	}
	return out
}

func toAccount(account *stripe.Account) *Account {
	return &Account{
		ID:             account.ID,
		PayoutsEnabled: account.PayoutsEnabled,
		ChargesEnabled: account.ChargesEnabled,
	}
}
