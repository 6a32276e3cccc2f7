package api

import (
	"net/http"
	"time"

	"hookd/internal/buildinfo"
)

// DebugHandler serves a build and effective-config snapshot.
func (s *Server) DebugHandler(w http.ResponseWriter, r *http.Request) {
	backoff := make([]string, 0, len(s.Cfg.Delivery.Backoff))
	for _, d := range s.Cfg.Delivery.BackoffSchedule() {
		backoff = append(backoff, d.String())
	}
	writeJSON(w, 200, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"addr":        s.Cfg.Addr,
			"logLevel":    s.Cfg.LogLevel,
			"rateRps":     s.Cfg.RateRPS,
			"rateBurst":   s.Cfg.RateBurst,
			"timeout":     s.Cfg.Delivery.Timeout.Std().String(),
			"maxAttempts": s.Cfg.Delivery.MaxAttempts,
			"backoff":     backoff,
			"hasRedisUrl": s.Cfg.RedisURL != "",
		},
	})
}
