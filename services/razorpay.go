package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Govind-619/LinkSphere/utils"
	"github.com/razorpay/razorpay-go"
)

// Razorpay webhook events the billing service reacts to
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionHalted    = "subscription.halted"
	EventPaymentFailed         = "payment.failed"
)

// SignatureHeader carries the webhook HMAC
const SignatureHeader = "X-Razorpay-Signature"

// WebhookEvent is the envelope Razorpay posts to the webhook
type WebhookEvent struct {
	Event     string         `json:"event"`
	AccountID string         `json:"account_id"`
	CreatedAt int64          `json:"created_at"`
	Payload   WebhookPayload `json:"payload"`
}

// WebhookPayload holds the entities attached to an event
type WebhookPayload struct {
	Subscription *struct {
		Entity RazorpaySubscription `json:"entity"`
	} `json:"subscription"`
	Payment *struct {
		Entity RazorpayPayment `json:"entity"`
	} `json:"payment"`
}

// RazorpaySubscription is the part of a subscription entity we read
type RazorpaySubscription struct {
	ID           string `json:"id"`
	PlanID       string `json:"plan_id"`
	Status       string `json:"status"`
	CurrentStart int64  `json:"current_start"`
	Notes        Notes  `json:"notes"`
}

// RazorpayPayment is the part of a payment entity we read
type RazorpayPayment struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id"`
	Notes          Notes  `json:"notes"`
}

// Notes are the key/value pairs attached at checkout. Razorpay sends an empty
// JSON array instead of an object when there are none.
type Notes map[string]string

// UnmarshalJSON accepts an object, an empty array or null
func (n *Notes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || (len(trimmed) > 0 && trimmed[0] == '[') {
		*n = nil
		return nil
	}
	raw := map[string]any{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	out := make(Notes, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	*n = out
	return nil
}

// WorkspaceID returns the workspace the checkout was made for
func (n Notes) WorkspaceID() string {
	if id := n["workspace_id"]; id != "" {
		return id
	}
	return n["workspaceId"]
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body
func VerifyWebhookSignature(secret string, body []byte, signature string) error {
	invalid := utils.NewAppError(http.StatusBadRequest, utils.CodeInvalidSignature, "Invalid webhook signature", nil)
	if secret == "" || signature == "" {
		return invalid
	}
	if !hmac.Equal([]byte(SignWebhook(secret, body)), []byte(signature)) {
		return invalid
	}
	return nil
}

// SignWebhook returns the signature Razorpay would send for body
func SignWebhook(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// SubscriptionFetcher loads a subscription from the payment processor
type SubscriptionFetcher interface {
	FetchSubscription(ctx context.Context, subscriptionID string) (*RazorpaySubscription, error)
}

// RazorpaySubscriptions fetches subscriptions through the Razorpay API
type RazorpaySubscriptions struct {
	client *razorpay.Client
}

// NewRazorpaySubscriptions creates a fetcher with the API key pair
func NewRazorpaySubscriptions(key, secret string) *RazorpaySubscriptions {
	return &RazorpaySubscriptions{client: razorpay.NewClient(key, secret)}
}

// FetchSubscription implements SubscriptionFetcher
func (r *RazorpaySubscriptions) FetchSubscription(ctx context.Context, subscriptionID string) (*RazorpaySubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := r.client.Subscription.Fetch(subscriptionID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch subscription %s: %w", subscriptionID, err)
	}

	// The client returns a decoded map; round-trip it into our struct.
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var sub RazorpaySubscription
	if err := json.Unmarshal(b, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription %s: %w", subscriptionID, err)
	}
	return &sub, nil
}
