// Package notify carries the engine's outbound lifecycle notifications to
// observers (log sinks, UI streams, external processes). Publishing is
// fire-and-forget: no publisher ever blocks on a listener.
package notify

import (
	"time"

	"hookd/internal/model"
)

type Kind string

const (
	WebhookRegistered Kind = "webhook.registered"
	WebhookUpdated    Kind = "webhook.updated"
	WebhookDeleted    Kind = "webhook.deleted"
	EventTriggered    Kind = "event.triggered"
	DeliverySuccess   Kind = "delivery.success"
	DeliveryFailed    Kind = "delivery.failed"
)

// Notification is one lifecycle announcement with snapshots of the entities
// it concerns. Only the fields relevant to the kind are set.
type Notification struct {
	Kind     Kind            `json:"kind"`
	TS       time.Time       `json:"ts"`
	Webhook  *model.Webhook  `json:"webhook,omitempty"`
	Event    *model.Event    `json:"event,omitempty"`
	Delivery *model.Delivery `json:"delivery,omitempty"`
}

// Broker fans notifications out to subscribers. Subscribe with no kinds
// receives everything. Channels returned by Subscribe are closed by
// Unsubscribe and must not be closed by the caller.
type Broker interface {
	Subscribe(kinds ...Kind) chan Notification
	Unsubscribe(ch chan Notification)
	Publish(n Notification)
}
