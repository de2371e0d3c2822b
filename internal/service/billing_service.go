package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joshnosal/tip-driver-api/internal/apperror"
	"github.com/joshnosal/tip-driver-api/internal/billing"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/identity"
	"github.com/joshnosal/tip-driver-api/internal/repository"
	"github.com/joshnosal/tip-driver-api/pkg/logger"
)

// TrialPolicy controls trial grants on first subscriptions
type TrialPolicy struct {
	Enabled    bool
	PeriodDays int64
}

// BillingService orchestrates provider-side billing state for companies.
// The provider is the source of truth for payment methods and subscriptions;
// the only billing state stored locally is the customer and connected
// account references on the company record.
type BillingService interface {
	// EnsureCustomer provisions the company's billing customer if it does
	// not have one yet. The reference is set once and never overwritten.
	EnsureCustomer(ctx context.Context, company *domain.Company, creatorID string) error
	// AttachPaymentMethod wires a new payment method into every consumer of
	// the customer's default before detaching the previously attached ones
	AttachPaymentMethod(ctx context.Context, company *domain.Company, paymentMethodID string) error
	// RemovePaymentMethod cancels the customer's subscriptions with
	// immediate invoicing, finalizes resulting drafts, and detaches the
	// default payment method
	RemovePaymentMethod(ctx context.Context, company *domain.Company) error
	// StartSubscription subscribes the company to a price. A customer holds
	// at most one subscription object; additional prices become line items.
	StartSubscription(ctx context.Context, company *domain.Company, priceID string) error
	// StopSubscription unsubscribes the company from a price
	StopSubscription(ctx context.Context, company *domain.Company, priceID string) error
	// HadTrial reports whether the customer ever held a subscription with a
	// trial-start marker, in any status
	HadTrial(ctx context.Context, company *domain.Company) (bool, error)
	// CustomerSubscriptions lists the customer's current subscriptions
	CustomerSubscriptions(ctx context.Context, company *domain.Company) ([]*billing.Subscription, error)
	// DefaultPaymentMethod returns the customer's invoice-level default
	// payment method, or nil when none is set
	DefaultPaymentMethod(ctx context.Context, company *domain.Company) (*billing.PaymentMethod, error)
	// CreateConnectedAccount provisions the company's payment-recipient
	// account, stores its reference, and returns the onboarding URL
	CreateConnectedAccount(ctx context.Context, company *domain.Company, callerID, returnURL string) (string, error)
	// AccountStatus returns the connected account, or nil when the company
	// has none
	AccountStatus(ctx context.Context, company *domain.Company) (*billing.Account, error)
	// UpdateLink returns an account-update onboarding link
	UpdateLink(ctx context.Context, company *domain.Company, returnURL string) (string, error)
	// DashboardLink returns a dashboard login link for the connected account
	DashboardLink(ctx context.Context, company *domain.Company) (string, error)
	// ListPrices lists all subscription prices
	ListPrices(ctx context.Context) ([]*billing.Price, error)
	// ListProducts lists all subscription products
	ListProducts(ctx context.Context) ([]*billing.Product, error)
	// TerminalConnectionToken issues a card-reader connection token
	TerminalConnectionToken(ctx context.Context) (string, error)
}

type billingService struct {
	gateway     billing.Gateway
	companyRepo repository.CompanyRepository
	users       identity.Provider
	trial       TrialPolicy
	log         *logger.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(
	gateway billing.Gateway,
	companyRepo repository.CompanyRepository,
	users identity.Provider,
	trial TrialPolicy,
	log *logger.Logger,
) BillingService {
	return &billingService{
		gateway:     gateway,
		companyRepo: companyRepo,
		users:       users,
		trial:       trial,
		log:         log,
	}
}

func (s *billingService) EnsureCustomer(ctx context.Context, company *domain.Company, creatorID string) error {
	if company.BillingCustomerID != "" {
		return nil
	}

	email, err := s.users.GetPrimaryEmail(ctx, creatorID)
	if err != nil {
		return apperror.Internal("resolve creator email", err)
	}

	customer, err := s.gateway.CreateCustomer(ctx, &billing.CreateCustomerRequest{
		Name:      company.Name,
		Email:     email,
		CompanyID: company.ID,
	})
	if err != nil {
		return apperror.Internal("create billing customer", err)
	}

	company.BillingCustomerID = customer.ID
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return apperror.Internal("store customer reference", err)
	}
	return nil
}

// AttachPaymentMethod runs an ordered sequence: snapshot old methods, confirm
// the new one, repoint every subscription, repoint the customer default, and
// only then detach the old methods. Ordering guarantees the customer is never
// left without a usable default mid-sequence; there is no rollback on
// failure, partial progress stands.
func (s *billingService) AttachPaymentMethod(ctx context.Context, company *domain.Company, paymentMethodID string) error {
	if paymentMethodID == "" {
		return fmt.Errorf("%w: missing payment method id", apperror.ErrInvalidArgument)
	}
	customerID := company.BillingCustomerID
	if customerID == "" {
		return fmt.Errorf("%w: company has no billing customer", apperror.ErrPrecondition)
	}

	previous, err := s.gateway.ListPaymentMethods(ctx, customerID)
	if err != nil {
		return apperror.Internal("snapshot payment methods", err)
	}

	if err := s.gateway.ConfirmPaymentMethodSetup(ctx, customerID, paymentMethodID); err != nil {
		return apperror.Internal("confirm payment method", err)
	}

	subscriptions, err := s.gateway.ListSubscriptions(ctx, &billing.SubscriptionQuery{CustomerID: customerID})
	if err != nil {
		return apperror.Internal("list subscriptions", err)
	}
	for _, sub := range subscriptions {
		if err := s.gateway.SetSubscriptionPaymentMethod(ctx, sub.ID, paymentMethodID); err != nil {
			return apperror.Internal("update subscription payment method", err)
		}
	}

	if err := s.gateway.SetDefaultPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		return apperror.Internal("set default payment method", err)
	}

	for _, pm := range previous {
		if pm.ID == paymentMethodID {
			continue
		}
		if err := s.gateway.DetachPaymentMethod(ctx, pm.ID); err != nil {
			return apperror.Internal("detach payment method", err)
		}
	}

	return nil
}

func (s *billingService) RemovePaymentMethod(ctx context.Context, company *domain.Company) error {
	customerID := company.BillingCustomerID
	if customerID == "" {
		return nil
	}

	customer, err := s.gateway.GetCustomer(ctx, customerID)
	if err != nil {
		return apperror.Internal("load customer", err)
	}
	if customer == nil || customer.Deleted {
		return nil
	}

	subscriptions, err := s.gateway.ListSubscriptions(ctx, &billing.SubscriptionQuery{CustomerID: customerID})
	if err != nil {
		return apperror.Internal("list subscriptions", err)
	}
	for _, sub := range subscriptions {
		if err := s.gateway.CancelSubscription(ctx, sub.ID); err != nil {
			return apperror.Internal("cancel subscription", err)
		}
		if err := s.gateway.FinalizeDraftInvoices(ctx, sub.ID); err != nil {
			return apperror.Internal("finalize invoices", err)
		}
	}

	if customer.DefaultPaymentMethodID == "" {
		return nil
	}
	if err := s.gateway.DetachPaymentMethod(ctx, customer.DefaultPaymentMethodID); err != nil {
		return apperror.Internal("detach payment method", err)
	}
	return nil
}

func (s *billingService) StartSubscription(ctx context.Context, company *domain.Company, priceID string) error {
	if priceID == "" {
		return fmt.Errorf("%w: missing price id", apperror.ErrInvalidArgument)
	}
	customerID := company.BillingCustomerID
	if customerID == "" {
		return fmt.Errorf("%w: company has no billing customer", apperror.ErrPrecondition)
	}

	price, err := s.gateway.GetPrice(ctx, priceID)
	if err != nil {
		return apperror.Internal("resolve price", err)
	}
	if price == nil {
		return fmt.Errorf("%w: unknown price", apperror.ErrNotFound)
	}

	subscriptions, err := s.gateway.ListSubscriptions(ctx, &billing.SubscriptionQuery{CustomerID: customerID})
	if err != nil {
		return apperror.Internal("list subscriptions", err)
	}

	// One subscription object per customer; further prices are added as
	// line items on the existing one.
	if len(subscriptions) > 0 {
		if err := s.gateway.AddSubscriptionItem(ctx, subscriptions[0].ID, price.ID); err != nil {
			return apperror.Internal("add subscription item", err)
		}
		return nil
	}

	req := &billing.CreateSubscriptionRequest{
		CustomerID:         customerID,
		PriceID:            price.ID,
		BillingCycleAnchor: firstOfNextMonth(time.Now().UTC()).Unix(),
	}
	if s.trial.Enabled {
		hadTrial, err := s.hadTrial(ctx, customerID)
		if err != nil {
			return err
		}
		if !hadTrial {
			req.TrialPeriodDays = s.trial.PeriodDays
		}
	}

	if _, err := s.gateway.CreateSubscription(ctx, req); err != nil {
		return apperror.Internal("create subscription", err)
	}
	return nil
}

func (s *billingService) StopSubscription(ctx context.Context, company *domain.Company, priceID string) error {
	if priceID == "" {
		return fmt.Errorf("%w: missing price id", apperror.ErrInvalidArgument)
	}
	customerID := company.BillingCustomerID
	if customerID == "" {
		return fmt.Errorf("%w: company has no billing customer", apperror.ErrPrecondition)
	}

	price, err := s.gateway.GetPrice(ctx, priceID)
	if err != nil {
		return apperror.Internal("resolve price", err)
	}
	if price == nil {
		return fmt.Errorf("%w: unknown price", apperror.ErrNotFound)
	}

	subscriptions, err := s.gateway.ListSubscriptions(ctx, &billing.SubscriptionQuery{
		CustomerID: customerID,
		PriceID:    price.ID,
	})
	if err != nil {
		return apperror.Internal("list subscriptions", err)
	}

	switch {
	case len(subscriptions) == 0:
		return nil
	case len(subscriptions) == 1:
		if err := s.gateway.CancelSubscription(ctx, subscriptions[0].ID); err != nil {
			return apperror.Internal("cancel subscription", err)
		}
		return nil
	default:
		// Legacy state: the price is spread across several subscriptions.
		// Strip the matching items instead of cancelling, other priced
		// items may remain on each subscription.
		s.log.WithContext(ctx).Warn("multiple subscriptions carry one price",
			zap.String("company_id", company.ID),
			zap.String("price_id", price.ID),
			zap.Int("count", len(subscriptions)))
		for _, sub := range subscriptions {
			for _, item := range sub.Items {
				if item.PriceID != price.ID {
					continue
				}
				if err := s.gateway.RemoveSubscriptionItem(ctx, item.ID); err != nil {
					return apperror.Internal("remove subscription item", err)
				}
			}
		}
		return nil
	}
}

func (s *billingService) HadTrial(ctx context.Context, company *domain.Company) (bool, error) {
	if company.BillingCustomerID == "" {
		return false, fmt.Errorf("%w: company has no billing customer", apperror.ErrPrecondition)
	}
	return s.hadTrial(ctx, company.BillingCustomerID)
}

func (s *billingService) hadTrial(ctx context.Context, customerID string) (bool, error) {
	subscriptions, err := s.gateway.ListSubscriptions(ctx, &billing.SubscriptionQuery{
		CustomerID: customerID,
		AnyStatus:  true,
	})
	if err != nil {
		return false, apperror.Internal("list subscriptions", err)
	}
	for _, sub := range subscriptions {
		if sub.HadTrialStart() {
			return true, nil
		}
	}
	return false, nil
}

func (s *billingService) CustomerSubscriptions(ctx context.Context, company *domain.Company) ([]*billing.Subscription, error) {
	if company.BillingCustomerID == "" {
		return nil, fmt.Errorf("%w: company has no billing customer", apperror.ErrPrecondition)
	}
	subscriptions, err := s.gateway.ListSubscriptions(ctx, &billing.SubscriptionQuery{
		CustomerID: company.BillingCustomerID,
	})
	if err != nil {
		return nil, apperror.Internal("list subscriptions", err)
	}
	return subscriptions, nil
}

func (s *billingService) DefaultPaymentMethod(ctx context.Context, company *domain.Company) (*billing.PaymentMethod, error) {
	if company.BillingCustomerID == "" {
		return nil, fmt.Errorf("%w: company has no billing customer", apperror.ErrPrecondition)
	}

	customer, err := s.gateway.GetCustomer(ctx, company.BillingCustomerID)
	if err != nil {
		return nil, apperror.Internal("load customer", err)
	}
	if customer == nil || customer.Deleted || customer.DefaultPaymentMethodID == "" {
		return nil, nil
	}

	pm, err := s.gateway.GetPaymentMethod(ctx, company.BillingCustomerID, customer.DefaultPaymentMethodID)
	if err != nil {
		return nil, apperror.Internal("load payment method", err)
	}
	return pm, nil
}

func (s *billingService) CreateConnectedAccount(ctx context.Context, company *domain.Company, callerID, returnURL string) (string, error) {
	if returnURL == "" {
		return "", fmt.Errorf("%w: missing redirect url", apperror.ErrInvalidArgument)
	}

	email, err := s.users.GetPrimaryEmail(ctx, callerID)
	if err != nil {
		return "", apperror.Internal("resolve caller email", err)
	}

	result, err := s.gateway.CreateConnectedAccount(ctx, &billing.CreateAccountRequest{
		Name:      company.Name,
		Email:     email,
		CompanyID: company.ID,
		ReturnURL: returnURL,
	})
	if err != nil {
		return "", apperror.Internal("create connected account", err)
	}

	company.ConnectedAccountID = result.Account.ID
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return "", apperror.Internal("store account reference", err)
	}

	return result.OnboardingURL, nil
}

func (s *billingService) AccountStatus(ctx context.Context, company *domain.Company) (*billing.Account, error) {
	if company.ConnectedAccountID == "" {
		return nil, fmt.Errorf("%w: company has no connected account", apperror.ErrPrecondition)
	}
	account, err := s.gateway.GetAccount(ctx, company.ConnectedAccountID)
	if err != nil {
		return nil, apperror.Internal("load account", err)
	}
	return account, nil
}

func (s *billingService) UpdateLink(ctx context.Context, company *domain.Company, returnURL string) (string, error) {
	if returnURL == "" {
		return "", fmt.Errorf("%w: missing redirect url", apperror.ErrInvalidArgument)
	}
	if company.ConnectedAccountID == "" {
		return "", fmt.Errorf("%w: company has no connected account", apperror.ErrPrecondition)
	}
	link, err := s.gateway.CreateAccountLink(ctx, company.ConnectedAccountID, returnURL)
	if err != nil {
		return "", apperror.Internal("create account link", err)
	}
	return link, nil
}

func (s *billingService) DashboardLink(ctx context.Context, company *domain.Company) (string, error) {
	if company.ConnectedAccountID == "" {
		return "", fmt.Errorf("%w: company has no connected account", apperror.ErrPrecondition)
	}
	link, err := s.gateway.CreateDashboardLink(ctx, company.ConnectedAccountID)
	if err != nil {
		return "", apperror.Internal("create dashboard link", err)
	}
	return link, nil
}

func (s *billingService) ListPrices(ctx context.Context) ([]*billing.Price, error) {
	prices, err := s.gateway.ListPrices(ctx)
	if err != nil {
		return nil, apperror.Internal("list prices", err)
	}
	return prices, nil
}

func (s *billingService) ListProducts(ctx context.Context) ([]*billing.Product, error) {
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return nil, apperror.Internal("list products", err)
	}
	return products, nil
}

func (s *billingService) TerminalConnectionToken(ctx context.Context) (string, error) {
	token, err := s.gateway.CreateTerminalConnectionToken(ctx)
	if err != nil {
		return "", apperror.Internal("create connection token", err)
	}
	return token, nil
}

// firstOfNextMonth returns midnight UTC on the first day of the month after t
func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
