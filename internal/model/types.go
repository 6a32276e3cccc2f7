package model

import "time"

// Core domain types for the webhook delivery engine.

// DeliveryStatus tracks a delivery through its attempt sequence.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Webhook is a registered outbound subscription: a destination URL plus the
// event types it wants to receive. The id, url, events and secret are fixed at
// registration; only Active may change afterwards.
type Webhook struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"secret,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscribed reports whether the webhook's event set contains eventType.
func (w Webhook) Subscribed(eventType string) bool {
	for _, e := range w.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Redacted returns a copy with the signing secret cleared. Every webhook that
// leaves the process through a response or notification goes through this.
func (w Webhook) Redacted() Webhook {
	w.Secret = ""
	return w
}

// Event is one triggered occurrence. It is ephemeral: constructed per trigger
// and carried only by the deliveries and notifications it produces.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Delivery is the bookkeeping record for one (webhook, event) pair: the full
// attempt sequence, not a single HTTP call. Attempts counts HTTP calls made
// so far. LastStatus is zero until some attempt has received a response.
// LastError reflects the most recent attempt and is empty after a success.
// CompletedAt is set exactly when the status becomes terminal.
type Delivery struct {
	ID          string         `json:"id"`
	WebhookID   string         `json:"webhookId"`
	EventID     string         `json:"eventId"`
	EventType   string         `json:"eventType"`
	URL         string         `json:"url"`
	Status      DeliveryStatus `json:"status"`
	Attempts    int            `json:"attempts"`
	LastStatus  int            `json:"lastStatus,omitempty"`
	LastError   string         `json:"lastError,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// Terminal reports whether the delivery has finished its attempt sequence.
func (d Delivery) Terminal() bool {
	return d.Status == DeliverySuccess || d.Status == DeliveryFailed
}

// API request shapes

type WebhookIn struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
}

type WebhookPatch struct {
	Active *bool `json:"active"`
}

type TriggerIn struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
