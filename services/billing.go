package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Govind-619/LinkSphere/cache"
	"github.com/Govind-619/LinkSphere/config"
	"github.com/Govind-619/LinkSphere/models"
	"github.com/Govind-619/LinkSphere/outbox"
	"github.com/Govind-619/LinkSphere/store"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/sourcegraph/conc/pool"
)

// Webhook outcomes, also used as the metric label
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// BillingService applies payment processor events to workspaces
type BillingService struct {
	store         store.Store
	plans         *config.PlanCatalog
	tokens        cache.TokenCache
	subscriptions SubscriptionFetcher
	secret        string
	now           func() time.Time
}

// NewBillingService creates a BillingService. subscriptions may be nil, in
// which case events without a plan id are dropped.
func NewBillingService(s store.Store, plans *config.PlanCatalog, tokens cache.TokenCache, subscriptions SubscriptionFetcher, webhookSecret string) *BillingService {
	return &BillingService{
		store:         s,
		plans:         plans,
		tokens:        tokens,
		subscriptions: subscriptions,
		secret:        webhookSecret,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// HandleWebhook verifies and applies one webhook delivery. Only a bad
// signature, an unreadable body or a failed write return an error; events
// that cannot be matched to a workspace or plan are logged and acknowledged.
func (s *BillingService) HandleWebhook(ctx context.Context, body []byte, signature string) (string, error) {
	if err := VerifyWebhookSignature(s.secret, body, signature); err != nil {
		utils.WebhookEvents.WithLabelValues("unknown", OutcomeRejected).Inc()
		return OutcomeRejected, err
	}

	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		utils.WebhookEvents.WithLabelValues("unknown", OutcomeRejected).Inc()
		return OutcomeRejected, utils.BadRequestError("Invalid webhook payload", err)
	}

	outcome, err := s.dispatch(ctx, evt)
	if err != nil {
		outcome = OutcomeFailed
	}
	utils.WebhookEvents.WithLabelValues(evt.Event, outcome).Inc()
	return outcome, err
}

func (s *BillingService) dispatch(ctx context.Context, evt WebhookEvent) (string, error) {
	switch evt.Event {
	case EventSubscriptionActivated, EventSubscriptionCharged:
		return s.subscriptionActivated(ctx, evt)
	case EventSubscriptionCancelled:
		return s.subscriptionCancelled(ctx, evt)
	case EventSubscriptionHalted, EventPaymentFailed:
		return s.paymentFailed(ctx, evt)
	default:
		utils.LogDebug("Ignoring webhook event %s", evt.Event)
		return OutcomeIgnored, nil
	}
}

func (s *BillingService) subscriptionActivated(ctx context.Context, evt WebhookEvent) (string, error) {
	if evt.Payload.Subscription == nil || evt.Payload.Subscription.Entity.ID == "" {
		utils.LogWarn("Webhook %s without a subscription, dropping", evt.Event)
		return OutcomeDropped, nil
	}
	sub := evt.Payload.Subscription.Entity
	workspaceID := sub.Notes.WorkspaceID()
	if workspaceID == "" {
		utils.LogWarn("Subscription %s has no workspace reference, dropping", sub.ID)
		return OutcomeDropped, nil
	}

	if sub.PlanID == "" {
		if s.subscriptions == nil {
			utils.LogWarn("Subscription %s has no plan id and no processor client is configured, dropping", sub.ID)
			return OutcomeDropped, nil
		}
		fetched, err := s.subscriptions.FetchSubscription(ctx, sub.ID)
		if err != nil {
			return "", utils.ServiceUnavailableError("Failed to fetch subscription", err)
		}
		sub.PlanID = fetched.PlanID
		if sub.CurrentStart == 0 {
			sub.CurrentStart = fetched.CurrentStart
		}
	}

	plan, ok := s.plans.ByRazorpayPlan(sub.PlanID)
	if !ok {
		utils.LogWarn("Subscription %s is for unknown plan %s, dropping", sub.ID, sub.PlanID)
		return OutcomeDropped, nil
	}

	cycleStart := s.now()
	if sub.CurrentStart > 0 {
		cycleStart = time.Unix(sub.CurrentStart, 0).UTC()
	}

	subID := sub.ID
	ws, err := s.changePlan(ctx, workspaceID, plan, &subID, cycleStart.Day(), outbox.ActionWorkspaceUpgrade)
	if err != nil {
		return "", err
	}
	if ws == nil {
		return OutcomeDropped, nil
	}

	utils.LogInfo("Workspace %s upgraded to %s (subscription %s)", workspaceID, plan.Name, sub.ID)
	return OutcomeProcessed, nil
}

func (s *BillingService) subscriptionCancelled(ctx context.Context, evt WebhookEvent) (string, error) {
	if evt.Payload.Subscription == nil {
		utils.LogWarn("Webhook %s without a subscription, dropping", evt.Event)
		return OutcomeDropped, nil
	}
	sub := evt.Payload.Subscription.Entity
	workspaceID := sub.Notes.WorkspaceID()
	if workspaceID == "" {
		utils.LogWarn("Subscription %s has no workspace reference, dropping", sub.ID)
		return OutcomeDropped, nil
	}

	ws, err := s.changePlan(ctx, workspaceID, s.plans.Free(), nil, s.now().Day(), outbox.ActionWorkspaceCancel)
	if err != nil {
		return "", err
	}
	if ws == nil {
		return OutcomeDropped, nil
	}

	utils.LogInfo("Workspace %s downgraded to %s after cancellation of %s", workspaceID, models.PlanFree, sub.ID)
	return OutcomeProcessed, nil
}

func (s *BillingService) paymentFailed(ctx context.Context, evt WebhookEvent) (string, error) {
	var workspaceID string
	if evt.Payload.Subscription != nil {
		workspaceID = evt.Payload.Subscription.Entity.Notes.WorkspaceID()
	}
	if workspaceID == "" && evt.Payload.Payment != nil {
		workspaceID = evt.Payload.Payment.Entity.Notes.WorkspaceID()
	}
	if workspaceID == "" {
		utils.LogWarn("Webhook %s has no workspace reference, dropping", evt.Event)
		return OutcomeDropped, nil
	}

	if err := s.store.SetPaymentFailed(ctx, workspaceID, s.now()); err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogWarn("Webhook %s for unknown workspace %s, dropping", evt.Event, workspaceID)
			return OutcomeDropped, nil
		}
		return "", err
	}

	utils.LogWarn("Payment failed for workspace %s", workspaceID)
	return OutcomeProcessed, nil
}

// changePlan writes the plan and its outbox messages in one transaction, then
// applies the side effects. A nil workspace means the workspace does not exist.
func (s *BillingService) changePlan(ctx context.Context, workspaceID string, plan config.Plan, subscriptionID *string, cycleDay int, action string) (*models.Workspace, error) {
	var ws *models.Workspace
	err := s.store.Transaction(ctx, func(tx store.Repository) error {
		var err error
		ws, err = tx.GetWorkspace(ctx, workspaceID)
		if err != nil {
			return err
		}

		err = tx.UpdateWorkspacePlan(ctx, workspaceID, store.PlanUpdate{
			Plan:              plan.Name,
			SubscriptionID:    subscriptionID,
			BillingCycleStart: cycleDay,
			LinksLimit:        plan.Limits.Links,
			DomainsLimit:      plan.Limits.Domains,
			UsersLimit:        plan.Limits.Users,
			PayoutsLimit:      plan.Limits.Payouts,
		})
		if err != nil {
			return err
		}

		audit, err := outbox.NewAuditEvent(outbox.AuditEvent{
			Action:      action,
			WorkspaceID: workspaceID,
			ActorID:     "razorpay",
			ActorType:   "webhook",
			Targets:     []outbox.AuditTarget{{Type: "workspace", ID: workspaceID}},
			Metadata: map[string]any{
				"previousPlan": ws.Plan,
				"plan":         plan.Name,
			},
			OccurredAt: s.now(),
		})
		if err != nil {
			return utils.InternalError("Failed to record audit event", err)
		}
		if err := tx.EnqueueOutbox(ctx, audit); err != nil {
			return err
		}

		if action != outbox.ActionWorkspaceUpgrade {
			return nil
		}
		owners, err := tx.WorkspaceOwners(ctx, workspaceID)
		if err != nil {
			return err
		}
		to := make([]string, 0, len(owners))
		for _, o := range owners {
			if o.Email != "" {
				to = append(to, o.Email)
			}
		}
		if len(to) == 0 {
			utils.LogWarn("Workspace %s has no owner email, skipping welcome email", workspaceID)
			return nil
		}
		email, err := outbox.NewEmailEvent(outbox.EmailWelcomePlan, outbox.WelcomeEmail(to, ws.Name, plan.Name))
		if err != nil {
			return utils.InternalError("Failed to record email", err)
		}
		return tx.EnqueueOutbox(ctx, email)
	})
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogWarn("Billing event for unknown workspace %s, dropping", workspaceID)
			return nil, nil
		}
		return nil, err
	}

	s.applySideEffects(ctx, workspaceID, plan)
	return ws, nil
}

// applySideEffects runs the follow-up writes of a plan change concurrently.
// Each one settles on its own; failures are logged and never abort the others.
func (s *BillingService) applySideEffects(ctx context.Context, workspaceID string, plan config.Plan) {
	p := pool.New().WithErrors().WithContext(ctx)

	p.Go(func(ctx context.Context) error {
		n, err := s.store.SetTokenRateLimit(ctx, workspaceID, plan.Limits.API)
		if err != nil {
			utils.LogError("Failed to update token rate limits for workspace %s: %v", workspaceID, err)
			return err
		}
		utils.LogDebug("Updated rate limit of %d tokens in workspace %s to %d", n, workspaceID, plan.Limits.API)
		return nil
	})

	p.Go(func(ctx context.Context) error {
		if err := s.store.SetPremiumDomain(ctx, workspaceID, plan.PremiumDomain); err != nil {
			utils.LogError("Failed to update premium domain for workspace %s: %v", workspaceID, err)
			return err
		}
		return nil
	})

	p.Go(func(ctx context.Context) error {
		if s.tokens == nil {
			return nil
		}
		keys, err := s.store.ListTokenPartialKeys(ctx, workspaceID)
		if err != nil {
			utils.LogError("Failed to list tokens of workspace %s: %v", workspaceID, err)
			return err
		}
		if err := s.tokens.Expire(ctx, keys...); err != nil {
			utils.LogError("Failed to expire cached tokens of workspace %s: %v", workspaceID, err)
			return err
		}
		return nil
	})

	if err := p.Wait(); err != nil {
		utils.LogWarn("Plan change for workspace %s finished with side effect errors", workspaceID)
	}
}
