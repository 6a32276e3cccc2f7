package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hookd/internal/model"
	"hookd/internal/store"
	"hookd/internal/webhooks"
)

// WebhooksHandler handles /v1/webhooks: register a webhook, list all.
func (s *Server) WebhooksHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var in model.WebhookIn
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		wh, err := s.Registry.Register(r.Context(), in)
		if err != nil {
			var verr *webhooks.ValidationError
			if errors.As(err, &verr) {
				writeProblem(w, 400, "Invalid webhook", verr.Error(), r.URL.Path)
				return
			}
			writeProblem(w, 500, "Register failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 201, wh.Redacted())
	case http.MethodGet:
		items, err := s.Registry.List(r.Context())
		if err != nil {
			writeProblem(w, 500, "List webhooks failed", err.Error(), r.URL.Path)
			return
		}
		out := make([]model.Webhook, 0, len(items))
		for _, wh := range items {
			out = append(out, wh.Redacted())
		}
		writeJSON(w, 200, map[string]any{"items": out})
	default:
		w.WriteHeader(405)
	}
}

// WebhookByIDHandler handles /v1/webhooks/{id} (get, patch active, delete)
// and /v1/webhooks/{id}/deliveries.
func (s *Server) WebhookByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/webhooks/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeProblem(w, 404, "Not Found", "", r.URL.Path)
		return
	}

	if len(parts) == 2 && parts[1] == "deliveries" {
		if r.Method != http.MethodGet {
			w.WriteHeader(405)
			return
		}
		// Records outlive their webhook, so no existence check here.
		items, err := s.Store.ListDeliveriesByWebhook(r.Context(), id)
		if err != nil {
			writeProblem(w, 500, "List deliveries failed", err.Error(), r.URL.Path)
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		writeJSON(w, 200, map[string]any{"items": items})
		return
	}
	if len(parts) != 1 {
		writeProblem(w, 404, "Not Found", "", r.URL.Path)
		return
	}

	switch r.Method {
	case http.MethodGet:
		wh, err := s.Registry.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, 404, "Webhook not found", "", r.URL.Path)
				return
			}
			writeProblem(w, 500, "Get webhook failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 200, wh.Redacted())
	case http.MethodPatch:
		var in model.WebhookPatch
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if in.Active == nil {
			writeProblem(w, 400, "Invalid patch", "active is required", r.URL.Path)
			return
		}
		wh, err := s.Registry.SetActive(r.Context(), id, *in.Active)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, 404, "Webhook not found", "", r.URL.Path)
				return
			}
			writeProblem(w, 500, "Update webhook failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, 200, wh.Redacted())
	case http.MethodDelete:
		existed, err := s.Registry.Delete(r.Context(), id)
		if err != nil {
			writeProblem(w, 500, "Delete webhook failed", err.Error(), r.URL.Path)
			return
		}
		if !existed {
			writeProblem(w, 404, "Webhook not found", "", r.URL.Path)
			return
		}
		w.WriteHeader(204)
	default:
		w.WriteHeader(405)
	}
}

// DeliveriesHandler handles GET /v1/deliveries.
func (s *Server) DeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(405)
		return
	}
	items, err := s.Store.ListDeliveries(r.Context())
	if err != nil {
		writeProblem(w, 500, "List deliveries failed", err.Error(), r.URL.Path)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	writeJSON(w, 200, map[string]any{"items": items})
}

// DeliveryByIDHandler handles GET /v1/deliveries/{id}.
func (s *Server) DeliveryByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(405)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/deliveries/")
	if id == "" || strings.Contains(id, "/") {
		writeProblem(w, 404, "Not Found", "", r.URL.Path)
		return
	}
	d, err := s.Store.GetDelivery(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, 404, "Delivery not found", "", r.URL.Path)
			return
		}
		writeProblem(w, 500, "Get delivery failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, d)
}

// EventsTestHandler handles POST /v1/events/test: synthesize an event and
// dispatch it in the background. Responds 202 with the event id; progress is
// observable on the notification feed and in the delivery records.
func (s *Server) EventsTestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(405)
		return
	}
	var in model.TriggerIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if strings.TrimSpace(in.Event) == "" {
		writeProblem(w, 400, "Invalid event", "event is required", r.URL.Path)
		return
	}
	evt, _, err := s.Dispatcher.TriggerDetached(s.baseCtx(), in.Event, in.Data)
	if err != nil {
		writeProblem(w, 400, "Invalid payload", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 202, map[string]string{"eventId": evt.ID})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check Redis connectivity when the notification feed runs over Redis
	type pinger interface{ Ping(ctx context.Context) error }
	if rb, ok := s.Broker.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := rb.Ping(ctx); err != nil {
			writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}
