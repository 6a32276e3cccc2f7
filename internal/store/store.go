package store

import (
	"context"
	"errors"

	"hookd/internal/model"
)

// WebhookStore keeps registered webhook subscriptions. Implementations must be
// safe for concurrent use; registration calls and delivery units touch it at
// the same time.
type WebhookStore interface {
	CreateWebhook(ctx context.Context, w model.Webhook) error
	GetWebhook(ctx context.Context, id string) (model.Webhook, error)
	ListWebhooks(ctx context.Context) ([]model.Webhook, error)
	SetWebhookActive(ctx context.Context, id string, active bool) (model.Webhook, error)
	DeleteWebhook(ctx context.Context, id string) error
	ActiveWebhooksForEvent(ctx context.Context, eventType string) ([]model.Webhook, error)
}

// DeliveryStore is pure bookkeeping for delivery records. Record upserts by
// delivery id; each in-flight delivery unit owns exactly one record, so
// contention is only on the backing container. Records outlive the deletion
// of their webhook.
type DeliveryStore interface {
	RecordDelivery(ctx context.Context, d model.Delivery) error
	GetDelivery(ctx context.Context, id string) (model.Delivery, error)
	ListDeliveriesByWebhook(ctx context.Context, webhookID string) ([]model.Delivery, error)
	ListDeliveries(ctx context.Context) ([]model.Delivery, error)
}

// Store is the combined interface the API server is wired with.
type Store interface {
	WebhookStore
	DeliveryStore
}

var ErrNotFound = errors.New("not found")
