package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hookd/internal/model"
	"hookd/internal/notify"
	"hookd/internal/store"
)

// envelope is the wire body POSTed to destinations.
type envelope struct {
	Event     string `json:"event"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
	ID        string `json:"id"`
}

// Dispatcher fans a triggered event out to every active matching webhook,
// one delivery unit per match, all running concurrently. A slow or failing
// destination never delays the others.
type Dispatcher struct {
	Webhooks  store.WebhookStore
	Deliverer *Deliverer
	Notify    notify.Broker
	Log       *zap.Logger
}

func NewDispatcher(w store.WebhookStore, del *Deliverer, n notify.Broker, log *zap.Logger) *Dispatcher {
	if log == nil { log = zap.NewNop() }
	return &Dispatcher{Webhooks: w, Deliverer: del, Notify: n, Log: log}
}

// dispatch is one prepared fan-out: the event, its encoded wire body and
// the webhooks selected for it.
type dispatch struct {
	evt   model.Event
	body  []byte
	hooks []model.Webhook
}

// prepare constructs the event, encodes the wire body once for all
// destinations, emits event.triggered and selects the active subscribed
// webhooks. A payload that cannot be serialized fails before anything is
// emitted.
func (d *Dispatcher) prepare(ctx context.Context, eventType string, data any) (dispatch, error) {
	evt := model.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(envelope{
		Event:     evt.Type,
		Data:      evt.Data,
		Timestamp: evt.Timestamp.Format(time.RFC3339),
		ID:        evt.ID,
	})
	if err != nil {
		return dispatch{}, fmt.Errorf("encode event payload: %w", err)
	}
	d.Notify.Publish(notify.Notification{Kind: notify.EventTriggered, TS: evt.Timestamp, Event: &evt})

	hooks, err := d.Webhooks.ActiveWebhooksForEvent(ctx, eventType)
	if err != nil {
		return dispatch{}, fmt.Errorf("select webhooks: %w", err)
	}
	d.Log.Info("event triggered", zap.String("event_id", evt.ID), zap.String("type", eventType), zap.Int("webhooks", len(hooks)))
	return dispatch{evt: evt, body: body, hooks: hooks}, nil
}

// run starts one delivery unit per selected webhook and joins on all of them.
func (d *Dispatcher) run(ctx context.Context, dp dispatch) {
	var wg sync.WaitGroup
	for _, wh := range dp.hooks {
		wg.Add(1)
		go func(wh model.Webhook) {
			defer wg.Done()
			d.Deliverer.Deliver(ctx, wh, dp.evt, dp.body)
		}(wh)
	}
	wg.Wait()
}

// Trigger constructs the event, emits event.triggered and dispatches it to
// all active webhooks subscribed to eventType. It returns after every
// delivery unit has settled, so a caller that must not wait out retry
// schedules should use TriggerDetached instead. The only error is a payload
// that cannot be serialized, detected before anything is emitted.
func (d *Dispatcher) Trigger(ctx context.Context, eventType string, data any) (model.Event, error) {
	dp, err := d.prepare(ctx, eventType, data)
	if err != nil {
		return model.Event{}, err
	}
	d.run(ctx, dp)
	return dp.evt, nil
}

// TriggerDetached validates and announces the event like Trigger, then runs
// the fan-out in the background. The returned channel closes once every
// delivery unit has settled.
func (d *Dispatcher) TriggerDetached(ctx context.Context, eventType string, data any) (model.Event, <-chan struct{}, error) {
	dp, err := d.prepare(ctx, eventType, data)
	if err != nil {
		return model.Event{}, nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx, dp)
	}()
	return dp.evt, done, nil
}
