package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"hookd/internal/config"
	"hookd/internal/notify"
	"hookd/internal/store"
	"hookd/internal/webhooks"
)

// Server owns the HTTP surface and the engine components behind it.
type Server struct {
	Store      store.Store
	Registry   *webhooks.Registry
	Dispatcher *webhooks.Dispatcher
	Broker     notify.Broker
	Log        *zap.Logger
	Cfg        config.Config

	// BaseCtx bounds background fan-outs started by EventsTestHandler.
	// Canceling it stops in-flight delivery units at their next suspension
	// point; main cancels it on shutdown.
	BaseCtx context.Context
}

// NewServer wires the in-memory store, the notification broker and the
// delivery engine. With RedisURL set the notification feed additionally goes
// over Redis Pub/Sub; an unparsable URL falls back to the in-process hub.
func NewServer(cfg config.Config, log *zap.Logger) *Server {
	if log == nil { log = zap.NewNop() }
	st := store.NewMemory()

	var broker notify.Broker
	if cfg.RedisURL != "" {
		if rb, err := notify.NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			log.Warn("invalid redis url, using in-process hub", zap.Error(err))
			broker = notify.NewHub()
		}
	} else {
		broker = notify.NewHub()
	}

	del := webhooks.NewDeliverer(st, broker, log)
	if t := cfg.Delivery.Timeout.Std(); t > 0 {
		del.HTTP = &http.Client{Timeout: t}
	}
	if cfg.Delivery.MaxAttempts > 0 {
		del.MaxAttempts = cfg.Delivery.MaxAttempts
	}
	if sched := cfg.Delivery.BackoffSchedule(); len(sched) > 0 {
		del.Backoff = sched
	}

	return &Server{
		Store:      st,
		Registry:   webhooks.NewRegistry(st, broker, log),
		Dispatcher: webhooks.NewDispatcher(st, del, broker, log),
		Broker:     broker,
		Log:        log,
		Cfg:        cfg,
		BaseCtx:    context.Background(),
	}
}

func (s *Server) baseCtx() context.Context {
	if s.BaseCtx != nil {
		return s.BaseCtx
	}
	return context.Background()
}
