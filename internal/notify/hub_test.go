package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookd/internal/model"
)

func recv(t *testing.T, ch chan Notification) Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return Notification{}
	}
}

func TestHubPublishReachesSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	w := model.Webhook{ID: "wh_1"}
	h.Publish(Notification{Kind: WebhookRegistered, TS: time.Now(), Webhook: &w})

	n := recv(t, ch)
	assert.Equal(t, WebhookRegistered, n.Kind)
	require.NotNil(t, n.Webhook)
	assert.Equal(t, "wh_1", n.Webhook.ID)
}

func TestHubKindFilter(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(DeliveryFailed)
	defer h.Unsubscribe(ch)

	h.Publish(Notification{Kind: EventTriggered})
	h.Publish(Notification{Kind: DeliveryFailed})

	n := recv(t, ch)
	assert.Equal(t, DeliveryFailed, n.Kind)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected notification %q", extra.Kind)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
	// double unsubscribe is a no-op
	h.Unsubscribe(ch)
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			h.Publish(Notification{Kind: EventTriggered})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on saturated subscriber")
	}
}
