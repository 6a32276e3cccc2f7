package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookd/internal/model"
)

func TestMemoryWebhookCRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	w := model.Webhook{ID: "wh_1", URL: "https://example.com/hook", Events: []string{"payout"}, Active: true, CreatedAt: time.Now()}
	require.NoError(t, m.CreateWebhook(ctx, w))

	got, err := m.GetWebhook(ctx, "wh_1")
	require.NoError(t, err)
	assert.Equal(t, w.URL, got.URL)
	assert.True(t, got.Active)

	list, err := m.ListWebhooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "wh_1", list[0].ID)

	upd, err := m.SetWebhookActive(ctx, "wh_1", false)
	require.NoError(t, err)
	assert.False(t, upd.Active)

	require.NoError(t, m.DeleteWebhook(ctx, "wh_1"))
	_, err = m.GetWebhook(ctx, "wh_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteWebhook(ctx, "wh_1"), ErrNotFound)
}

func TestMemoryUnknownIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetWebhook(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.SetWebhookActive(ctx, "nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetDelivery(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryActiveWebhooksForEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	add := func(id string, events []string, active bool) {
		t.Helper()
		require.NoError(t, m.CreateWebhook(ctx, model.Webhook{ID: id, URL: "https://example.com/" + id, Events: events, Active: active}))
	}
	add("a", []string{"payout", "refund"}, true)
	add("b", []string{"refund"}, true)
	add("c", []string{"payout"}, false)

	got, err := m.ActiveWebhooksForEvent(ctx, "payout")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = m.ActiveWebhooksForEvent(ctx, "chargeback")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryDeliveriesSurviveWebhookDeletion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateWebhook(ctx, model.Webhook{ID: "wh_1", URL: "https://example.com", Events: []string{"payout"}, Active: true}))
	d := model.Delivery{ID: "del_1", WebhookID: "wh_1", EventID: "evt_1", EventType: "payout", Status: model.DeliveryPending, CreatedAt: time.Now()}
	require.NoError(t, m.RecordDelivery(ctx, d))

	require.NoError(t, m.DeleteWebhook(ctx, "wh_1"))

	byHook, err := m.ListDeliveriesByWebhook(ctx, "wh_1")
	require.NoError(t, err)
	require.Len(t, byHook, 1)
	assert.Equal(t, "del_1", byHook[0].ID)
}

func TestMemoryRecordDeliveryUpserts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	d := model.Delivery{ID: "del_1", WebhookID: "wh_1", EventID: "evt_1", Status: model.DeliveryPending, Attempts: 1}
	require.NoError(t, m.RecordDelivery(ctx, d))
	d.Status = model.DeliverySuccess
	d.Attempts = 2
	require.NoError(t, m.RecordDelivery(ctx, d))

	all, err := m.ListDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, model.DeliverySuccess, all[0].Status)
	assert.Equal(t, 2, all[0].Attempts)
}

func TestMemoryConcurrentRecordDelivery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const units = 50
	var wg sync.WaitGroup
	for i := 0; i < units; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("del_%d", i)
			d := model.Delivery{ID: id, WebhookID: fmt.Sprintf("wh_%d", i%5), EventID: "evt_1", Status: model.DeliveryPending}
			if err := m.RecordDelivery(ctx, d); err != nil { t.Error(err); return }
			d.Status = model.DeliverySuccess
			if err := m.RecordDelivery(ctx, d); err != nil { t.Error(err) }
		}(i)
	}
	wg.Wait()

	all, err := m.ListDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, all, units)
	seen := map[string]bool{}
	for _, d := range all {
		assert.False(t, seen[d.ID], "duplicate record %s", d.ID)
		seen[d.ID] = true
		assert.Equal(t, model.DeliverySuccess, d.Status)
	}
}
