package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshnosal/tip-driver-api/internal/apperror"
	"github.com/joshnosal/tip-driver-api/internal/billing"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/repository"
)

type billingFixture struct {
	repo    *repository.MemoryCompanyRepository
	gateway *fakeGateway
	users   *fakeIdentity
	company *domain.Company
	svc     BillingService
}

func newBillingFixture(t *testing.T, trial TrialPolicy) *billingFixture {
	t.Helper()
	repo := repository.NewMemoryCompanyRepository()
	gateway := newFakeGateway()
	users := newFakeIdentity()
	users.addUser("admin_1", "admin@example.com")

	company := domain.NewCompany("Acme", "admin_1")
	require.NoError(t, repo.Create(context.Background(), company))

	svc := NewBillingService(gateway, repo, users, trial, testLogger())
	require.NoError(t, svc.EnsureCustomer(context.Background(), company, "admin_1"))

	return &billingFixture{
		repo:    repo,
		gateway: gateway,
		users:   users,
		company: company,
		svc:     svc,
	}
}

// callsMatching returns recorded gateway calls whose name matches prefix
func (f *billingFixture) callsMatching(prefix string) []string {
	var out []string
	for _, call := range f.gateway.calls {
		if strings.HasPrefix(call, prefix) {
			out = append(out, call)
		}
	}
	return out
}

func TestEnsureCustomer_SetOnce(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})

	first := f.company.BillingCustomerID
	require.NotEmpty(t, first)

	// A second call must not replace the reference.
	require.NoError(t, f.svc.EnsureCustomer(ctx, f.company, "admin_1"))
	assert.Equal(t, first, f.company.BillingCustomerID)
	assert.Len(t, f.callsMatching("CreateCustomer"), 1)

	stored, err := f.repo.GetByID(ctx, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, first, stored.BillingCustomerID)
}

func TestAttachPaymentMethod_Ordering(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})
	customerID := f.company.BillingCustomerID

	// Seed an existing method and two subscriptions pointing at it.
	f.gateway.paymentMethods[customerID] = []*billing.PaymentMethod{{ID: "pm_old", Type: "card"}}
	f.gateway.subscriptions[customerID] = []*billing.Subscription{
		{ID: "sub_a", Status: billing.SubscriptionStatusActive},
		{ID: "sub_b", Status: billing.SubscriptionStatusTrialing},
	}

	require.NoError(t, f.svc.AttachPaymentMethod(ctx, f.company, "pm_new"))

	// End state: every consumer of "default" points at the new method and
	// the old one is gone.
	assert.Equal(t, "pm_new", f.gateway.subPaymentMethods["sub_a"])
	assert.Equal(t, "pm_new", f.gateway.subPaymentMethods["sub_b"])
	assert.Equal(t, "pm_new", f.gateway.customers[customerID].DefaultPaymentMethodID)
	require.Len(t, f.gateway.paymentMethods[customerID], 1)
	assert.Equal(t, "pm_new", f.gateway.paymentMethods[customerID][0].ID)

	// Ordering: snapshot first, detach dead last.
	calls := f.gateway.calls
	assert.Equal(t, "ListPaymentMethods("+customerID+")", calls[len(calls)-7])
	assert.Equal(t, "DetachPaymentMethod(pm_old)", calls[len(calls)-1])
}

func TestAttachPaymentMethod_FailureKeepsOldMethods(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})
	customerID := f.company.BillingCustomerID

	f.gateway.paymentMethods[customerID] = []*billing.PaymentMethod{{ID: "pm_old", Type: "card"}}
	f.gateway.failSetDefault = true

	err := f.svc.AttachPaymentMethod(ctx, f.company, "pm_new")
	require.ErrorIs(t, err, apperror.ErrInternal)

	// The sequence stopped before detachment, so the old method survives.
	assert.Empty(t, f.callsMatching("DetachPaymentMethod"))
}

func TestAttachPaymentMethod_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})

	err := f.svc.AttachPaymentMethod(ctx, f.company, "")
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	orphan := domain.NewCompany("NoCustomer", "admin_1")
	err = f.svc.AttachPaymentMethod(ctx, orphan, "pm_new")
	assert.ErrorIs(t, err, apperror.ErrPrecondition)
}

func TestRemovePaymentMethod(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})
	customerID := f.company.BillingCustomerID

	f.gateway.customers[customerID].DefaultPaymentMethodID = "pm_1"
	f.gateway.paymentMethods[customerID] = []*billing.PaymentMethod{{ID: "pm_1", Type: "card"}}
	f.gateway.subscriptions[customerID] = []*billing.Subscription{
		{ID: "sub_a", Status: billing.SubscriptionStatusActive},
	}

	require.NoError(t, f.svc.RemovePaymentMethod(ctx, f.company))

	assert.Equal(t, []string{"CancelSubscription(sub_a)"}, f.callsMatching("CancelSubscription"))
	assert.Equal(t, []string{"FinalizeDraftInvoices(sub_a)"}, f.callsMatching("FinalizeDraftInvoices"))
	assert.Equal(t, []string{"DetachPaymentMethod(pm_1)"}, f.callsMatching("DetachPaymentMethod"))
}

func TestRemovePaymentMethod_DeletedCustomerNoop(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})
	f.gateway.customers[f.company.BillingCustomerID].Deleted = true

	require.NoError(t, f.svc.RemovePaymentMethod(ctx, f.company))
	assert.Empty(t, f.callsMatching("CancelSubscription"))
	assert.Empty(t, f.callsMatching("DetachPaymentMethod"))
}

func TestStartSubscription_FirstSubscription(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{Enabled: true, PeriodDays: 14})
	f.gateway.addPrice("price_basic")

	require.NoError(t, f.svc.StartSubscription(ctx, f.company, "price_basic"))

	subs := f.gateway.subscriptions[f.company.BillingCustomerID]
	require.Len(t, subs, 1)
	assert.Equal(t, billing.SubscriptionStatusTrialing, subs[0].Status)

	// Anchor lands on midnight UTC of the first of next month.
	calls := f.callsMatching("CreateSubscription")
	require.Len(t, calls, 1)
	wantAnchor := firstOfNextMonth(time.Now().UTC()).Unix()
	assert.Contains(t, calls[0], "anchor="+itoa(wantAnchor))
	assert.Contains(t, calls[0], "trial=14")
}

func TestStartSubscription_SecondPriceMultiplexes(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})
	f.gateway.addPrice("price_basic")
	f.gateway.addPrice("price_addon")

	require.NoError(t, f.svc.StartSubscription(ctx, f.company, "price_basic"))
	require.NoError(t, f.svc.StartSubscription(ctx, f.company, "price_addon"))

	// One subscription object carrying both priced items, never a second
	// subscription.
	subs := f.gateway.subscriptions[f.company.BillingCustomerID]
	require.Len(t, subs, 1)
	require.Len(t, subs[0].Items, 2)
	assert.Len(t, f.callsMatching("CreateSubscription"), 1)
	assert.Len(t, f.callsMatching("AddSubscriptionItem"), 1)
}

func TestStartSubscription_NoTrialAfterPriorTrial(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{Enabled: true, PeriodDays: 14})
	f.gateway.addPrice("price_basic")

	// A canceled subscription with a trial marker still disqualifies the
	// customer from a second trial.
	f.gateway.subscriptions[f.company.BillingCustomerID] = []*billing.Subscription{
		{ID: "sub_old", Status: billing.SubscriptionStatusCanceled, TrialStart: 1700000000},
	}

	require.NoError(t, f.svc.StartSubscription(ctx, f.company, "price_basic"))

	calls := f.callsMatching("CreateSubscription")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "trial=0")
}

func TestStartSubscription_UnknownPrice(t *testing.T) {
	f := newBillingFixture(t, TrialPolicy{})
	err := f.svc.StartSubscription(context.Background(), f.company, "price_ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestStopSubscription_Branches(t *testing.T) {
	ctx := context.Background()

	t.Run("no match is a no-op", func(t *testing.T) {
		f := newBillingFixture(t, TrialPolicy{})
		f.gateway.addPrice("price_basic")
		require.NoError(t, f.svc.StopSubscription(ctx, f.company, "price_basic"))
		assert.Empty(t, f.callsMatching("CancelSubscription"))
		assert.Empty(t, f.callsMatching("RemoveSubscriptionItem"))
	})

	t.Run("single match cancels the subscription", func(t *testing.T) {
		f := newBillingFixture(t, TrialPolicy{})
		f.gateway.addPrice("price_basic")
		f.gateway.subscriptions[f.company.BillingCustomerID] = []*billing.Subscription{
			{ID: "sub_a", Status: billing.SubscriptionStatusActive, Items: []billing.SubscriptionItem{
				{ID: "si_1", PriceID: "price_basic"},
			}},
		}
		require.NoError(t, f.svc.StopSubscription(ctx, f.company, "price_basic"))
		assert.Equal(t, []string{"CancelSubscription(sub_a)"}, f.callsMatching("CancelSubscription"))
		assert.Empty(t, f.callsMatching("RemoveSubscriptionItem"))
	})

	t.Run("multiple matches strip items only", func(t *testing.T) {
		f := newBillingFixture(t, TrialPolicy{})
		f.gateway.addPrice("price_basic")
		f.gateway.subscriptions[f.company.BillingCustomerID] = []*billing.Subscription{
			{ID: "sub_a", Status: billing.SubscriptionStatusActive, Items: []billing.SubscriptionItem{
				{ID: "si_1", PriceID: "price_basic"},
				{ID: "si_2", PriceID: "price_addon"},
			}},
			{ID: "sub_b", Status: billing.SubscriptionStatusActive, Items: []billing.SubscriptionItem{
				{ID: "si_3", PriceID: "price_basic"},
			}},
		}
		require.NoError(t, f.svc.StopSubscription(ctx, f.company, "price_basic"))
		assert.Empty(t, f.callsMatching("CancelSubscription"))
		assert.ElementsMatch(t,
			[]string{"RemoveSubscriptionItem(si_1)", "RemoveSubscriptionItem(si_3)"},
			f.callsMatching("RemoveSubscriptionItem"))

		// The unrelated item survives on sub_a.
		subs := f.gateway.subscriptions[f.company.BillingCustomerID]
		require.Len(t, subs[0].Items, 1)
		assert.Equal(t, "price_addon", subs[0].Items[0].PriceID)
	})
}

func TestHadTrial(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})

	had, err := f.svc.HadTrial(ctx, f.company)
	require.NoError(t, err)
	assert.False(t, had)

	f.gateway.subscriptions[f.company.BillingCustomerID] = []*billing.Subscription{
		{ID: "sub_old", Status: billing.SubscriptionStatusCanceled, TrialStart: 1700000000},
	}
	had, err = f.svc.HadTrial(ctx, f.company)
	require.NoError(t, err)
	assert.True(t, had)
}

func TestDefaultPaymentMethod(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})
	customerID := f.company.BillingCustomerID

	pm, err := f.svc.DefaultPaymentMethod(ctx, f.company)
	require.NoError(t, err)
	assert.Nil(t, pm)

	f.gateway.customers[customerID].DefaultPaymentMethodID = "pm_1"
	f.gateway.paymentMethods[customerID] = []*billing.PaymentMethod{{ID: "pm_1", Type: "card", Last4: "4242"}}

	pm, err = f.svc.DefaultPaymentMethod(ctx, f.company)
	require.NoError(t, err)
	require.NotNil(t, pm)
	assert.Equal(t, "4242", pm.Last4)
}

func TestConnectedAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, TrialPolicy{})

	// Link operations require an existing account reference.
	_, err := f.svc.UpdateLink(ctx, f.company, "https://return.example")
	assert.ErrorIs(t, err, apperror.ErrPrecondition)
	_, err = f.svc.DashboardLink(ctx, f.company)
	assert.ErrorIs(t, err, apperror.ErrPrecondition)

	// Status reads are gated the same way before onboarding.
	account, err := f.svc.AccountStatus(ctx, f.company)
	assert.ErrorIs(t, err, apperror.ErrPrecondition)
	assert.Nil(t, account)

	url, err := f.svc.CreateConnectedAccount(ctx, f.company, "admin_1", "https://return.example")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	require.NotEmpty(t, f.company.ConnectedAccountID)

	stored, err := f.repo.GetByID(ctx, f.company.ID)
	require.NoError(t, err)
	assert.Equal(t, f.company.ConnectedAccountID, stored.ConnectedAccountID)

	link, err := f.svc.UpdateLink(ctx, f.company, "https://return.example")
	require.NoError(t, err)
	assert.Contains(t, link, f.company.ConnectedAccountID)

	dash, err := f.svc.DashboardLink(ctx, f.company)
	require.NoError(t, err)
	assert.Contains(t, dash, f.company.ConnectedAccountID)
}

func TestFirstOfNextMonth(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"mid month",
			time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC),
			time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"december rolls the year",
			time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
			time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"first of month still advances",
			time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstOfNextMonth(tt.in); !got.Equal(tt.want) {
				t.Errorf("firstOfNextMonth(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
