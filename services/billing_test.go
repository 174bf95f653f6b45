package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Govind-619/LinkSphere/cache"
	"github.com/Govind-619/LinkSphere/config"
	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/outbox"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

type fakeSubscriptions struct {
	sub   *RazorpaySubscription
	err   error
	calls []string
}

func (f *fakeSubscriptions) FetchSubscription(_ context.Context, id string) (*RazorpaySubscription, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type billingFixture struct {
	store  *store.MemoryStore
	tokens *cache.MemoryTokenCache
	subs   *fakeSubscriptions
	svc    *BillingService
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	s := seedPrograms(t)
	require.NoError(t, s.Seed(func(seed *store.MemorySeed) error {
		for _, tok := range []models.Token{
			{ID: "tok_1", WorkspaceID: "ws_1", Name: "ci", PartialKey: "aaaaaaaaaaaa", HashedKey: "x", RateLimit: 60},
			{ID: "tok_2", WorkspaceID: "ws_1", Name: "zapier", PartialKey: "bbbbbbbbbbbb", HashedKey: "x", RateLimit: 60},
			{ID: "tok_3", WorkspaceID: "ws_2", Name: "other", PartialKey: "cccccccccccc", HashedKey: "x", RateLimit: 60},
		} {
			if err := seed.Token(tok); err != nil {
				return err
			}
		}
		return nil
	}))

	plans, err := config.LoadPlans("")
	require.NoError(t, err)

	tokens := cache.NewMemoryTokenCache()
	for _, k := range []string{"aaaaaaaaaaaa", "cccccccccccc"} {
		require.NoError(t, tokens.Set(context.Background(), k, cache.CachedToken{TokenID: k}, time.Hour))
	}

	subs := &fakeSubscriptions{}
	svc := NewBillingService(s, plans, tokens, subs, testWebhookSecret)
	svc.now = func() time.Time { return baseTime }
	return &billingFixture{store: s, tokens: tokens, subs: subs, svc: svc}
}

func subscriptionEvent(event string, entity map[string]any) []byte {
	body, _ := json.Marshal(map[string]any{
		"entity":  "event",
		"event":   event,
		"payload": map[string]any{"subscription": map[string]any{"entity": entity}},
	})
	return body
}

func (f *billingFixture) deliver(t *testing.T, body []byte) (string, error) {
	t.Helper()
	return f.svc.HandleWebhook(context.Background(), body, SignWebhook(testWebhookSecret, body))
}

func TestBillingWebhook_ActivationUpgradesWorkspace(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	body := subscriptionEvent(EventSubscriptionActivated, map[string]any{
		"id":            "sub_123",
		"plan_id":       "plan_business_monthly",
		"current_start": time.Date(2025, 3, 18, 0, 0, 0, 0, time.UTC).Unix(),
		"notes":         map[string]any{"workspace_id": "ws_1"},
	})
	outcome, err := f.deliver(t, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	ws, err := f.store.GetWorkspace(ctx, "ws_1")
	require.NoError(t, err)
	assert.Equal(t, "business", ws.Plan)
	assert.Equal(t, "sub_123", utils.StringValue(ws.SubscriptionID))
	assert.Equal(t, 18, ws.BillingCycleStart)
	assert.Equal(t, 5000, ws.LinksLimit)
	assert.Equal(t, 40, ws.DomainsLimit)
	assert.Equal(t, 10, ws.UsersLimit)
	assert.Equal(t, int64(250000), ws.PayoutsLimit)
	assert.Nil(t, ws.PaymentFailedAt)

	tok, _ := f.store.Token("tok_1")
	assert.Equal(t, 1200, tok.RateLimit)
	other, _ := f.store.Token("tok_3")
	assert.Equal(t, 60, other.RateLimit, "other workspaces are untouched")

	domains, err := f.store.GetDefaultDomains(ctx, "ws_1")
	require.NoError(t, err)
	assert.True(t, domains.Dublink)

	_, hit, _ := f.tokens.Get(ctx, "aaaaaaaaaaaa")
	assert.False(t, hit, "cached token of the workspace is expired")
	_, hit, _ = f.tokens.Get(ctx, "cccccccccccc")
	assert.True(t, hit)

	kinds := map[string]models.OutboxEvent{}
	for _, evt := range f.store.Outbox() {
		kinds[evt.EventType] = evt
	}
	require.Contains(t, kinds, outbox.ActionWorkspaceUpgrade)
	require.Contains(t, kinds, outbox.EmailWelcomePlan)

	var msg outbox.EmailMessage
	require.NoError(t, json.Unmarshal(kinds[outbox.EmailWelcomePlan].Payload, &msg))
	assert.Equal(t, []string{"ada@acme.test"}, msg.To)
	assert.Equal(t, "Welcome to LinkSphere Business", msg.Subject)
	assert.Empty(t, f.subs.calls)
}

func TestBillingWebhook_FetchesPlanWhenMissing(t *testing.T) {
	f := newBillingFixture(t)
	f.subs.sub = &RazorpaySubscription{ID: "sub_9", PlanID: "plan_pro_yearly"}

	outcome, err := f.deliver(t, subscriptionEvent(EventSubscriptionCharged, map[string]any{
		"id":    "sub_9",
		"notes": map[string]any{"workspace_id": "ws_1"},
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)
	assert.Equal(t, []string{"sub_9"}, f.subs.calls)

	ws, err := f.store.GetWorkspace(context.Background(), "ws_1")
	require.NoError(t, err)
	assert.Equal(t, "pro", ws.Plan)
	assert.Equal(t, baseTime.Day(), ws.BillingCycleStart)
}

func TestBillingWebhook_FetchFailureIsRetryable(t *testing.T) {
	f := newBillingFixture(t)
	f.subs.err = errors.New("razorpay down")

	_, err := f.deliver(t, subscriptionEvent(EventSubscriptionActivated, map[string]any{
		"id":    "sub_9",
		"notes": map[string]any{"workspace_id": "ws_1"},
	}))
	requireAppError(t, err, utils.CodeUnavailable)
}

func TestBillingWebhook_DropsUnmatchedEvents(t *testing.T) {
	tests := []struct {
		name   string
		entity map[string]any
	}{
		{"no subscription id", map[string]any{"plan_id": "plan_pro_monthly", "notes": map[string]any{"workspace_id": "ws_1"}}},
		{"no workspace reference", map[string]any{"id": "sub_1", "plan_id": "plan_pro_monthly", "notes": []any{}}},
		{"unknown plan", map[string]any{"id": "sub_1", "plan_id": "plan_enterprise", "notes": map[string]any{"workspace_id": "ws_1"}}},
		{"unknown workspace", map[string]any{"id": "sub_1", "plan_id": "plan_pro_monthly", "notes": map[string]any{"workspace_id": "ws_404"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBillingFixture(t)
			outcome, err := f.deliver(t, subscriptionEvent(EventSubscriptionActivated, tt.entity))
			require.NoError(t, err)
			assert.Equal(t, OutcomeDropped, outcome)

			ws, err := f.store.GetWorkspace(context.Background(), "ws_1")
			require.NoError(t, err)
			assert.Equal(t, models.PlanFree, ws.Plan)
			assert.Empty(t, f.store.Outbox())
		})
	}
}

func TestBillingWebhook_CancellationDowngrades(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	_, err := f.deliver(t, subscriptionEvent(EventSubscriptionActivated, map[string]any{
		"id": "sub_1", "plan_id": "plan_pro_monthly", "notes": map[string]any{"workspace_id": "ws_1"},
	}))
	require.NoError(t, err)

	outcome, err := f.deliver(t, subscriptionEvent(EventSubscriptionCancelled, map[string]any{
		"id": "sub_1", "notes": map[string]any{"workspace_id": "ws_1"},
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	ws, err := f.store.GetWorkspace(ctx, "ws_1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, ws.Plan)
	assert.Nil(t, ws.SubscriptionID)
	assert.Equal(t, 25, ws.LinksLimit)

	tok, _ := f.store.Token("tok_2")
	assert.Equal(t, 60, tok.RateLimit)
	domains, err := f.store.GetDefaultDomains(ctx, "ws_1")
	require.NoError(t, err)
	assert.False(t, domains.Dublink)

	var downgrades, welcomes int
	for _, evt := range f.store.Outbox() {
		switch evt.EventType {
		case outbox.ActionWorkspaceCancel:
			downgrades++
		case outbox.EmailWelcomePlan:
			welcomes++
		}
	}
	assert.Equal(t, 1, downgrades)
	assert.Equal(t, 1, welcomes, "only the upgrade sends a welcome email")
}

func TestBillingWebhook_PaymentFailure(t *testing.T) {
	f := newBillingFixture(t)

	body, _ := json.Marshal(map[string]any{
		"event": EventPaymentFailed,
		"payload": map[string]any{
			"payment": map[string]any{"entity": map[string]any{"id": "pay_1", "notes": map[string]any{"workspace_id": "ws_1"}}},
		},
	})
	outcome, err := f.deliver(t, body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	ws, err := f.store.GetWorkspace(context.Background(), "ws_1")
	require.NoError(t, err)
	require.NotNil(t, ws.PaymentFailedAt)
	assert.True(t, baseTime.Equal(*ws.PaymentFailedAt))

	outcome, err = f.deliver(t, subscriptionEvent(EventSubscriptionHalted, map[string]any{
		"id": "sub_1", "notes": map[string]any{"workspace_id": "ws_404"},
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, outcome)
}

func TestBillingWebhook_IgnoresOtherEvents(t *testing.T) {
	f := newBillingFixture(t)

	outcome, err := f.deliver(t, []byte(`{"event":"invoice.paid","payload":{}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestBillingWebhook_RejectsBadSignature(t *testing.T) {
	f := newBillingFixture(t)
	body := subscriptionEvent(EventSubscriptionActivated, map[string]any{
		"id": "sub_1", "plan_id": "plan_pro_monthly", "notes": map[string]any{"workspace_id": "ws_1"},
	})

	_, err := f.svc.HandleWebhook(context.Background(), body, SignWebhook("wrong", body))
	requireAppError(t, err, utils.CodeInvalidSignature)

	_, err = f.svc.HandleWebhook(context.Background(), body, "")
	requireAppError(t, err, utils.CodeInvalidSignature)

	ws, err := f.store.GetWorkspace(context.Background(), "ws_1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanFree, ws.Plan)
}

// rateLimitOutage fails the token rate limit update and nothing else
type rateLimitOutage struct {
	*store.MemoryStore
}

func (rateLimitOutage) SetTokenRateLimit(context.Context, string, int) (int64, error) {
	return 0, errors.New("tokens table locked")
}

func TestBillingWebhook_SideEffectsSettleIndependently(t *testing.T) {
	f := newBillingFixture(t)
	f.svc.store = rateLimitOutage{f.store}
	ctx := context.Background()

	outcome, err := f.deliver(t, subscriptionEvent(EventSubscriptionActivated, map[string]any{
		"id": "sub_123", "plan_id": "plan_business_monthly", "notes": map[string]any{"workspace_id": "ws_1"},
	}))
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	ws, err := f.store.GetWorkspace(ctx, "ws_1")
	require.NoError(t, err)
	assert.Equal(t, "business", ws.Plan, "the plan change is committed before side effects run")

	tok, _ := f.store.Token("tok_1")
	assert.Equal(t, 60, tok.RateLimit)

	domains, err := f.store.GetDefaultDomains(ctx, "ws_1")
	require.NoError(t, err)
	assert.True(t, domains.Dublink)

	_, hit, _ := f.tokens.Get(ctx, "aaaaaaaaaaaa")
	assert.False(t, hit)
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte("The quick brown fox jumps over the lazy dog")
	const sig = "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"

	assert.Equal(t, sig, SignWebhook("key", body))
	assert.NoError(t, VerifyWebhookSignature("key", body, sig))

	for name, tc := range map[string]struct {
		secret, sig string
		body        []byte
	}{
		"wrong secret":  {"other", sig, body},
		"tampered body": {"key", sig, []byte(string(body) + ".")},
		"empty secret":  {"", SignWebhook("", body), body},
		"no signature":  {"key", "", body},
	} {
		err := VerifyWebhookSignature(tc.secret, tc.body, tc.sig)
		require.Error(t, err, name)
		assert.Equal(t, utils.CodeInvalidSignature, utils.GetAppError(err).Code, name)
	}
}

func TestNotesAcceptsEmptyArray(t *testing.T) {
	var sub RazorpaySubscription
	require.NoError(t, json.Unmarshal([]byte(`{"id":"sub_1","notes":[]}`), &sub))
	assert.Empty(t, sub.Notes.WorkspaceID())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"sub_1","notes":{"workspaceId":"ws_7","seats":3}}`), &sub))
	assert.Equal(t, "ws_7", sub.Notes.WorkspaceID())
	assert.Equal(t, "3", sub.Notes["seats"])
}
