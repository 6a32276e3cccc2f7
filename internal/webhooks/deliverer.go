package webhooks

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hookd/internal/metrics"
	"hookd/internal/model"
	"hookd/internal/notify"
	"hookd/internal/store"
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 4
	DefaultUserAgent   = "hookd/1.0"

	// at most this much of an error response body is kept as diagnostics
	maxErrorBody = 512
)

// DefaultBackoff returns the delays inserted before retries 1..n. The last
// entry repeats when the attempt budget exceeds the schedule.
func DefaultBackoff() []time.Duration {
	return []time.Duration{time.Second, 5 * time.Second, 15 * time.Second}
}

// Deliverer drives one (webhook, event) pair through its attempt sequence:
// POST, classify, back off, retry, until a 2xx response or the attempt
// budget runs out. It owns the delivery record for the whole sequence and
// emits delivery.success / delivery.failed on the terminal transition.
type Deliverer struct {
	Deliveries  store.DeliveryStore
	HTTP        *http.Client
	Notify      notify.Broker
	Log         *zap.Logger
	UserAgent   string
	MaxAttempts int
	Backoff     []time.Duration
}

func NewDeliverer(d store.DeliveryStore, n notify.Broker, log *zap.Logger) *Deliverer {
	if log == nil { log = zap.NewNop() }
	return &Deliverer{
		Deliveries:  d,
		HTTP:        &http.Client{Timeout: DefaultTimeout},
		Notify:      n,
		Log:         log,
		UserAgent:   DefaultUserAgent,
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff(),
	}
}

// Deliver runs the full attempt sequence for one webhook and event. body is
// the serialized envelope, identical across attempts so the signature stays
// stable. Attempt failures never escape; the returned record carries the
// outcome. ctx cancellation is honored at the HTTP call and backoff waits,
// leaving the record pending.
func (e *Deliverer) Deliver(ctx context.Context, wh model.Webhook, evt model.Event, body []byte) model.Delivery {
	d := model.Delivery{
		ID:        uuid.New().String(),
		WebhookID: wh.ID,
		EventID:   evt.ID,
		EventType: evt.Type,
		URL:       wh.URL,
		Status:    model.DeliveryPending,
		CreatedAt: time.Now().UTC(),
	}
	e.record(ctx, d)

	for attempt := 1; ; attempt++ {
		d.Attempts = attempt
		code, err := e.attempt(ctx, wh, evt, body)
		if code != 0 {
			d.LastStatus = code
		}
		if err == nil {
			now := time.Now().UTC()
			d.Status = model.DeliverySuccess
			d.LastError = ""
			d.CompletedAt = &now
			e.record(ctx, d)
			metrics.Deliveries.WithLabelValues(evt.Type, string(d.Status)).Inc()
			e.Log.Info("delivery succeeded",
				zap.String("delivery_id", d.ID), zap.String("webhook_id", wh.ID),
				zap.String("event_id", evt.ID), zap.Int("attempts", d.Attempts), zap.Int("status", code))
			ref := wh.Redacted()
			e.Notify.Publish(notify.Notification{Kind: notify.DeliverySuccess, TS: now, Delivery: &d, Webhook: &ref, Event: &evt})
			return d
		}

		d.LastError = err.Error()
		if attempt >= e.MaxAttempts {
			now := time.Now().UTC()
			d.Status = model.DeliveryFailed
			d.CompletedAt = &now
			e.record(ctx, d)
			metrics.Deliveries.WithLabelValues(evt.Type, string(d.Status)).Inc()
			e.Log.Error("delivery failed",
				zap.String("delivery_id", d.ID), zap.String("webhook_id", wh.ID),
				zap.String("event_id", evt.ID), zap.Int("attempts", d.Attempts), zap.String("last_error", d.LastError))
			ref := wh.Redacted()
			e.Notify.Publish(notify.Notification{Kind: notify.DeliveryFailed, TS: now, Delivery: &d, Webhook: &ref, Event: &evt})
			return d
		}
		e.record(ctx, d)

		delay := e.backoffDelay(attempt)
		e.Log.Warn("delivery attempt failed",
			zap.String("delivery_id", d.ID), zap.String("webhook_id", wh.ID),
			zap.Int("attempt", attempt), zap.Error(err), zap.Duration("backoff", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			e.Log.Warn("delivery canceled", zap.String("delivery_id", d.ID), zap.String("webhook_id", wh.ID))
			return d
		}
	}
}

// attempt issues one POST. A nil error means a 2xx response; the returned
// code is zero when no response was received at all.
func (e *Deliverer) attempt(ctx context.Context, wh model.Webhook, evt model.Event, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.UserAgent)
	req.Header.Set("X-Webhook-ID", wh.ID)
	req.Header.Set("X-Event-ID", evt.ID)
	req.Header.Set("X-Delivery-ID", uuid.New().String())
	if wh.Secret != "" {
		req.Header.Set("X-Webhook-Signature", SignHMAC(wh.Secret, body))
	}

	start := time.Now()
	resp, err := e.HTTP.Do(req)
	if err != nil {
		metrics.DeliveryAttempts.WithLabelValues(evt.Type, "transport_error").Inc()
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	metrics.DeliveryLatency.WithLabelValues(evt.Type, strconv.Itoa(resp.StatusCode)).Observe(float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.DeliveryAttempts.WithLabelValues(evt.Type, "http_error").Inc()
		return resp.StatusCode, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	metrics.DeliveryAttempts.WithLabelValues(evt.Type, "success").Inc()
	return resp.StatusCode, nil
}

func (e *Deliverer) record(ctx context.Context, d model.Delivery) {
	if err := e.Deliveries.RecordDelivery(ctx, d); err != nil {
		e.Log.Warn("record delivery", zap.String("delivery_id", d.ID), zap.Error(err))
	}
}

func (e *Deliverer) backoffDelay(attempt int) time.Duration {
	if len(e.Backoff) == 0 {
		return 0
	}
	i := attempt - 1
	if i >= len(e.Backoff) {
		i = len(e.Backoff) - 1
	}
	return e.Backoff[i]
}
