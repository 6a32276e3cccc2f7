package webhooks

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hookd/internal/model"
	"hookd/internal/notify"
	"hookd/internal/store"
)

// Registry manages webhook subscriptions: validated registration, lookup,
// activation toggling and deletion. Every mutation publishes a lifecycle
// notification carrying the affected subscription.
type Registry struct {
	Store  store.WebhookStore
	Notify notify.Broker
	Log    *zap.Logger
}

func NewRegistry(s store.WebhookStore, n notify.Broker, log *zap.Logger) *Registry {
	if log == nil { log = zap.NewNop() }
	return &Registry{Store: s, Notify: n, Log: log}
}

// Register validates the input, stores a new active subscription and emits
// webhook.registered. The url must be absolute and events non-empty; id,
// url, events and secret are immutable afterwards.
func (r *Registry) Register(ctx context.Context, in model.WebhookIn) (model.Webhook, error) {
	u, err := url.Parse(in.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return model.Webhook{}, &ValidationError{Field: "url", Reason: "must be an absolute URL"}
	}
	if len(in.Events) == 0 {
		return model.Webhook{}, &ValidationError{Field: "events", Reason: "must not be empty"}
	}
	w := model.Webhook{
		ID:        uuid.New().String(),
		URL:       in.URL,
		Events:    append([]string(nil), in.Events...),
		Secret:    in.Secret,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.Store.CreateWebhook(ctx, w); err != nil {
		return model.Webhook{}, err
	}
	r.Log.Info("webhook registered", zap.String("webhook_id", w.ID), zap.String("url", w.URL), zap.Strings("events", w.Events))
	ref := w.Redacted()
	r.Notify.Publish(notify.Notification{Kind: notify.WebhookRegistered, TS: time.Now().UTC(), Webhook: &ref})
	return w, nil
}

func (r *Registry) List(ctx context.Context) ([]model.Webhook, error) {
	return r.Store.ListWebhooks(ctx)
}

func (r *Registry) Get(ctx context.Context, id string) (model.Webhook, error) {
	return r.Store.GetWebhook(ctx, id)
}

// SetActive toggles the only mutable attribute and emits webhook.updated.
func (r *Registry) SetActive(ctx context.Context, id string, active bool) (model.Webhook, error) {
	w, err := r.Store.SetWebhookActive(ctx, id, active)
	if err != nil {
		return model.Webhook{}, err
	}
	r.Log.Info("webhook updated", zap.String("webhook_id", w.ID), zap.Bool("active", w.Active))
	ref := w.Redacted()
	r.Notify.Publish(notify.Notification{Kind: notify.WebhookUpdated, TS: time.Now().UTC(), Webhook: &ref})
	return w, nil
}

// Delete removes the subscription and reports whether it existed. Delivery
// records for it are left untouched. Emits webhook.deleted on removal.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	w, err := r.Store.GetWebhook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := r.Store.DeleteWebhook(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) { return false, nil }
		return false, err
	}
	r.Log.Info("webhook deleted", zap.String("webhook_id", id))
	ref := w.Redacted()
	r.Notify.Publish(notify.Notification{Kind: notify.WebhookDeleted, TS: time.Now().UTC(), Webhook: &ref})
	return true, nil
}
