package webhooks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookd/internal/model"
	"hookd/internal/notify"
	"hookd/internal/store"
)

func newTestRegistry() (*Registry, *notify.Hub) {
	hub := notify.NewHub()
	return NewRegistry(store.NewMemory(), hub, nil), hub
}

func waitNotification(t *testing.T, ch chan notify.Notification) notify.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return notify.Notification{}
	}
}

func TestRegisterRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	var verr *ValidationError

	_, err := reg.Register(ctx, model.WebhookIn{URL: "not-a-url", Events: []string{"payout"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "url", verr.Field)

	_, err = reg.Register(ctx, model.WebhookIn{URL: "/relative/only", Events: []string{"payout"}})
	require.ErrorAs(t, err, &verr)

	_, err = reg.Register(ctx, model.WebhookIn{URL: "https://example.com/hook", Events: nil})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "events", verr.Field)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRegisterGetList(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	w, err := reg.Register(ctx, model.WebhookIn{URL: "https://example.com/hook", Events: []string{"payout", "refund"}, Secret: "k"})
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)
	assert.True(t, w.Active)
	assert.False(t, w.CreatedAt.IsZero())

	got, err := reg.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, w, got)

	list, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, w, list[0])
}

func TestSetActive(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	w, err := reg.Register(ctx, model.WebhookIn{URL: "https://example.com/hook", Events: []string{"payout"}})
	require.NoError(t, err)

	upd, err := reg.SetActive(ctx, w.ID, false)
	require.NoError(t, err)
	assert.False(t, upd.Active)

	got, err := reg.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = reg.SetActive(ctx, "unknown", true)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()

	w, err := reg.Register(ctx, model.WebhookIn{URL: "https://example.com/hook", Events: []string{"payout"}})
	require.NoError(t, err)

	existed, err := reg.Delete(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = reg.Delete(ctx, w.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = reg.Get(ctx, w.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegistryNotifications(t *testing.T) {
	ctx := context.Background()
	reg, hub := newTestRegistry()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	w, err := reg.Register(ctx, model.WebhookIn{URL: "https://example.com/hook", Events: []string{"payout"}, Secret: "k"})
	require.NoError(t, err)
	n := waitNotification(t, ch)
	assert.Equal(t, notify.WebhookRegistered, n.Kind)
	require.NotNil(t, n.Webhook)
	assert.Equal(t, w.ID, n.Webhook.ID)
	assert.Empty(t, n.Webhook.Secret, "notifications carry redacted snapshots")

	_, err = reg.SetActive(ctx, w.ID, false)
	require.NoError(t, err)
	n = waitNotification(t, ch)
	assert.Equal(t, notify.WebhookUpdated, n.Kind)
	require.NotNil(t, n.Webhook)
	assert.False(t, n.Webhook.Active)

	_, err = reg.Delete(ctx, w.ID)
	require.NoError(t, err)
	n = waitNotification(t, ch)
	assert.Equal(t, notify.WebhookDeleted, n.Kind)
	require.NotNil(t, n.Webhook)
	assert.Equal(t, w.ID, n.Webhook.ID)
}
