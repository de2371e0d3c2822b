package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joshnosal/tip-driver-api/internal/billing"
	"github.com/joshnosal/tip-driver-api/internal/identity"
	"github.com/joshnosal/tip-driver-api/internal/notify"
	"github.com/joshnosal/tip-driver-api/pkg/logger"
)

func testLogger() *logger.Logger {
	log, err := logger.New(&logger.Config{Level: "error", ServiceName: "test"})
	if err != nil {
		panic(err)
	}
	return log
}

// fakeGateway is an in-memory billing provider that records every call in
// order, so tests can assert call sequencing as well as end state.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	customers      map[string]*billing.Customer
	paymentMethods map[string][]*billing.PaymentMethod // customerID -> attached
	subscriptions  map[string][]*billing.Subscription  // customerID -> subs
	prices         map[string]*billing.Price
	products       []*billing.Product
	accounts       map[string]*billing.Account

	subPaymentMethods map[string]string // subscriptionID -> pm id

	nextID int

	failCreateCustomer bool
	failConfirmSetup   bool
	failSetDefault     bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		customers:         make(map[string]*billing.Customer),
		paymentMethods:    make(map[string][]*billing.PaymentMethod),
		subscriptions:     make(map[string][]*billing.Subscription),
		prices:            make(map[string]*billing.Price),
		accounts:          make(map[string]*billing.Account),
		subPaymentMethods: make(map[string]string),
	}
}

func (g *fakeGateway) record(format string, args ...interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *fakeGateway) id(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s_%d", prefix, g.nextID)
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, req *billing.CreateCustomerRequest) (*billing.Customer, error) {
	g.record("CreateCustomer(%s)", req.CompanyID)
	if g.failCreateCustomer {
		return nil, errors.New("provider unavailable")
	}
	customer := &billing.Customer{ID: g.id("cus"), Email: req.Email}
	g.customers[customer.ID] = customer
	return customer, nil
}

func (g *fakeGateway) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	g.record("GetCustomer(%s)", customerID)
	return g.customers[customerID], nil
}

func (g *fakeGateway) ListPaymentMethods(ctx context.Context, customerID string) ([]*billing.PaymentMethod, error) {
	g.record("ListPaymentMethods(%s)", customerID)
	return append([]*billing.PaymentMethod(nil), g.paymentMethods[customerID]...), nil
}

func (g *fakeGateway) GetPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*billing.PaymentMethod, error) {
	g.record("GetPaymentMethod(%s)", paymentMethodID)
	for _, pm := range g.paymentMethods[customerID] {
		if pm.ID == paymentMethodID {
			return pm, nil
		}
	}
	return nil, nil
}

func (g *fakeGateway) ConfirmPaymentMethodSetup(ctx context.Context, customerID, paymentMethodID string) error {
	g.record("ConfirmPaymentMethodSetup(%s)", paymentMethodID)
	if g.failConfirmSetup {
		return errors.New("setup intent failed")
	}
	g.paymentMethods[customerID] = append(g.paymentMethods[customerID], &billing.PaymentMethod{ID: paymentMethodID, Type: "card"})
	return nil
}

func (g *fakeGateway) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	g.record("SetDefaultPaymentMethod(%s)", paymentMethodID)
	if g.failSetDefault {
		return errors.New("customer update failed")
	}
	if customer, ok := g.customers[customerID]; ok {
		customer.DefaultPaymentMethodID = paymentMethodID
	}
	return nil
}

func (g *fakeGateway) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	g.record("DetachPaymentMethod(%s)", paymentMethodID)
	for customerID, methods := range g.paymentMethods {
		kept := methods[:0]
		for _, pm := range methods {
			if pm.ID != paymentMethodID {
				kept = append(kept, pm)
			}
		}
		g.paymentMethods[customerID] = kept
	}
	return nil
}

func (g *fakeGateway) ListSubscriptions(ctx context.Context, query *billing.SubscriptionQuery) ([]*billing.Subscription, error) {
	g.record("ListSubscriptions(%s,price=%s,any=%t)", query.CustomerID, query.PriceID, query.AnyStatus)
	var out []*billing.Subscription
	for _, sub := range g.subscriptions[query.CustomerID] {
		if !query.AnyStatus && sub.Status == billing.SubscriptionStatusCanceled {
			continue
		}
		if query.PriceID != "" {
			match := false
			for _, item := range sub.Items {
				if item.PriceID == query.PriceID {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, sub)
	}
	return out, nil
}

func (g *fakeGateway) CreateSubscription(ctx context.Context, req *billing.CreateSubscriptionRequest) (*billing.Subscription, error) {
	g.record("CreateSubscription(%s,anchor=%d,trial=%d)", req.PriceID, req.BillingCycleAnchor, req.TrialPeriodDays)
	sub := &billing.Subscription{
		ID:     g.id("sub"),
		Status: billing.SubscriptionStatusActive,
		Items:  []billing.SubscriptionItem{{ID: g.id("si"), PriceID: req.PriceID}},
	}
	if req.TrialPeriodDays > 0 {
		sub.Status = billing.SubscriptionStatusTrialing
		sub.TrialStart = 1
	}
	g.subscriptions[req.CustomerID] = append(g.subscriptions[req.CustomerID], sub)
	return sub, nil
}

func (g *fakeGateway) SetSubscriptionPaymentMethod(ctx context.Context, subscriptionID, paymentMethodID string) error {
	g.record("SetSubscriptionPaymentMethod(%s,%s)", subscriptionID, paymentMethodID)
	g.subPaymentMethods[subscriptionID] = paymentMethodID
	return nil
}

func (g *fakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.record("CancelSubscription(%s)", subscriptionID)
	for _, subs := range g.subscriptions {
		for _, sub := range subs {
			if sub.ID == subscriptionID {
				sub.Status = billing.SubscriptionStatusCanceled
			}
		}
	}
	return nil
}

func (g *fakeGateway) AddSubscriptionItem(ctx context.Context, subscriptionID, priceID string) error {
	g.record("AddSubscriptionItem(%s,%s)", subscriptionID, priceID)
	for _, subs := range g.subscriptions {
		for _, sub := range subs {
			if sub.ID == subscriptionID {
				sub.Items = append(sub.Items, billing.SubscriptionItem{ID: g.id("si"), PriceID: priceID})
			}
		}
	}
	return nil
}

func (g *fakeGateway) RemoveSubscriptionItem(ctx context.Context, itemID string) error {
	g.record("RemoveSubscriptionItem(%s)", itemID)
	for _, subs := range g.subscriptions {
		for _, sub := range subs {
			kept := sub.Items[:0]
			for _, item := range sub.Items {
				if item.ID != itemID {
					kept = append(kept, item)
				}
			}
			sub.Items = kept
		}
	}
	return nil
}

func (g *fakeGateway) FinalizeDraftInvoices(ctx context.Context, subscriptionID string) error {
	g.record("FinalizeDraftInvoices(%s)", subscriptionID)
	return nil
}

func (g *fakeGateway) GetPrice(ctx context.Context, priceID string) (*billing.Price, error) {
	g.record("GetPrice(%s)", priceID)
	return g.prices[priceID], nil
}

func (g *fakeGateway) ListPrices(ctx context.Context) ([]*billing.Price, error) {
	g.record("ListPrices()")
	var out []*billing.Price
	for _, price := range g.prices {
		out = append(out, price)
	}
	return out, nil
}

func (g *fakeGateway) ListProducts(ctx context.Context) ([]*billing.Product, error) {
	g.record("ListProducts()")
	return g.products, nil
}

func (g *fakeGateway) CreateConnectedAccount(ctx context.Context, req *billing.CreateAccountRequest) (*billing.CreateAccountResult, error) {
	g.record("CreateConnectedAccount(%s)", req.CompanyID)
	account := &billing.Account{ID: g.id("acct")}
	g.accounts[account.ID] = account
	return &billing.CreateAccountResult{
		Account:       account,
		OnboardingURL: "https://onboarding.example/" + account.ID,
	}, nil
}

func (g *fakeGateway) GetAccount(ctx context.Context, accountID string) (*billing.Account, error) {
	g.record("GetAccount(%s)", accountID)
	account, ok := g.accounts[accountID]
	if !ok {
		return nil, errors.New("no such account")
	}
	return account, nil
}

func (g *fakeGateway) CreateAccountLink(ctx context.Context, accountID, returnURL string) (string, error) {
	g.record("CreateAccountLink(%s)", accountID)
	return "https://onboarding.example/" + accountID + "/update", nil
}

func (g *fakeGateway) CreateDashboardLink(ctx context.Context, accountID string) (string, error) {
	g.record("CreateDashboardLink(%s)", accountID)
	return "https://dashboard.example/" + accountID, nil
}

func (g *fakeGateway) CreateTerminalConnectionToken(ctx context.Context) (string, error) {
	g.record("CreateTerminalConnectionToken()")
	return "tct_secret", nil
}

func (g *fakeGateway) Name() string { return "fake" }

// addPrice registers a price the fake will resolve
func (g *fakeGateway) addPrice(id string) *billing.Price {
	price := &billing.Price{ID: id, Currency: "usd", UnitAmount: 1000}
	g.prices[id] = price
	return price
}

// fakeIdentity is an in-memory identity provider
type fakeIdentity struct {
	mu      sync.Mutex
	byEmail map[string]*identity.User
	byID    map[string]*identity.User
	created []string // emails passed to CreateUser, in order
	nextID  int

	failCreate bool
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		byEmail: make(map[string]*identity.User),
		byID:    make(map[string]*identity.User),
	}
}

func (f *fakeIdentity) addUser(id, email string) *identity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &identity.User{ID: id, Email: email}
	f.byEmail[email] = user
	f.byID[id] = user
	return user
}

func (f *fakeIdentity) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email], nil
}

func (f *fakeIdentity) CreateUser(ctx context.Context, email, initialPassword string) (*identity.User, error) {
	if f.failCreate {
		return nil, errors.New("provider rejected user")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user := &identity.User{ID: fmt.Sprintf("user_new_%d", f.nextID), Email: email}
	f.byEmail[email] = user
	f.byID[user.ID] = user
	f.created = append(f.created, email)
	return user, nil
}

func (f *fakeIdentity) GetPrimaryEmail(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.byID[userID]; ok {
		return user.Email, nil
	}
	return "", errors.New("no such user")
}

// fakeNotifier records sent events
type fakeNotifier struct {
	mu     sync.Mutex
	events []*notify.EmailEvent
	fail   bool
}

func (f *fakeNotifier) SendEmail(ctx context.Context, event *notify.EmailEvent) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) sent() []*notify.EmailEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*notify.EmailEvent(nil), f.events...)
}
