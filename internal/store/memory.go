package store

import (
	"context"
	"sync"

	"hookd/internal/model"
)

// Memory is the in-memory store; all state is lost on process exit.
type Memory struct {
	mu          sync.Mutex
	hooks       map[string]model.Webhook  // id -> webhook
	hookIDs     []string                  // webhook ids, insertion order
	deliveries  map[string]model.Delivery // id -> latest snapshot
	deliveryIDs []string                  // delivery ids, insertion order
	byWebhook   map[string][]string       // webhook id -> delivery ids
}

func NewMemory() *Memory {
	return &Memory{
		hooks:      map[string]model.Webhook{},
		deliveries: map[string]model.Delivery{},
		byWebhook:  map[string][]string{},
	}
}

func (m *Memory) CreateWebhook(ctx context.Context, w model.Webhook) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.hooks[w.ID]; !ok {
		m.hookIDs = append(m.hookIDs, w.ID)
	}
	m.hooks[w.ID] = w
	return nil
}

func (m *Memory) GetWebhook(ctx context.Context, id string) (model.Webhook, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	w, ok := m.hooks[id]
	if !ok { return model.Webhook{}, ErrNotFound }
	return w, nil
}

func (m *Memory) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := make([]model.Webhook, 0, len(m.hookIDs))
	for _, id := range m.hookIDs {
		out = append(out, m.hooks[id])
	}
	return out, nil
}

func (m *Memory) SetWebhookActive(ctx context.Context, id string, active bool) (model.Webhook, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	w, ok := m.hooks[id]
	if !ok { return model.Webhook{}, ErrNotFound }
	w.Active = active
	m.hooks[id] = w
	return w, nil
}

func (m *Memory) DeleteWebhook(ctx context.Context, id string) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.hooks[id]; !ok { return ErrNotFound }
	delete(m.hooks, id)
	out := make([]string, 0, len(m.hookIDs))
	for _, v := range m.hookIDs { if v != id { out = append(out, v) } }
	m.hookIDs = out
	return nil
}

func (m *Memory) ActiveWebhooksForEvent(ctx context.Context, eventType string) ([]model.Webhook, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	var out []model.Webhook
	for _, id := range m.hookIDs {
		w := m.hooks[id]
		if w.Active && w.Subscribed(eventType) { out = append(out, w) }
	}
	return out, nil
}

// Delivery records. Deletion of a webhook leaves its records in place.

func (m *Memory) RecordDelivery(ctx context.Context, d model.Delivery) error {
	m.mu.Lock(); defer m.mu.Unlock()
	if _, ok := m.deliveries[d.ID]; !ok {
		m.deliveryIDs = append(m.deliveryIDs, d.ID)
		m.byWebhook[d.WebhookID] = append(m.byWebhook[d.WebhookID], d.ID)
	}
	m.deliveries[d.ID] = d
	return nil
}

func (m *Memory) GetDelivery(ctx context.Context, id string) (model.Delivery, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok { return model.Delivery{}, ErrNotFound }
	return d, nil
}

func (m *Memory) ListDeliveriesByWebhook(ctx context.Context, webhookID string) ([]model.Delivery, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	ids := m.byWebhook[webhookID]
	out := make([]model.Delivery, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.deliveries[id])
	}
	return out, nil
}

func (m *Memory) ListDeliveries(ctx context.Context) ([]model.Delivery, error) {
	m.mu.Lock(); defer m.mu.Unlock()
	out := make([]model.Delivery, 0, len(m.deliveryIDs))
	for _, id := range m.deliveryIDs {
		out = append(out, m.deliveries[id])
	}
	return out, nil
}
