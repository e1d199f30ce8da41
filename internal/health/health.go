// Package health serves the liveness and readiness probes of the dictacheck
// operations endpoint.
//
//   - /healthz reports that the process is up, with its version and uptime.
//   - /readyz runs every registered [Checker] concurrently and returns 200
//     only when all of them pass.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when healthy.
type Checker struct {
	// Name is the key of this check in the /readyz response.
	Name string

	// Check must respect context cancellation.
	Check func(ctx context.Context) error
}

type result struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Uptime  string            `json:"uptime,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Option is a functional option for configuring a [Handler].
type Option func(*Handler)

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(h *Handler) {
		h.version = v
	}
}

// WithCheckers registers readiness checks.
func WithCheckers(checkers ...Checker) Option {
	return func(h *Handler) {
		h.checkers = append(h.checkers, checkers...)
	}
}

// Handler serves /healthz and /readyz. It is safe for concurrent use.
type Handler struct {
	version  string
	started  time.Time
	checkers []Checker
	now      func() time.Time
}

// New creates a [Handler] configured with the supplied options.
func New(opts ...Option) *Handler {
	h := &Handler{now: time.Now}
	for _, o := range opts {
		o(h)
	}
	h.started = h.now()
	return h
}

// Healthz always returns 200 OK while the process can serve HTTP.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{
		Status:  "ok",
		Version: h.version,
		Uptime:  h.now().Sub(h.started).Round(time.Second).String(),
	})
}

// Readyz returns 200 when every checker passes and 503 otherwise. Each
// checker gets its own [checkTimeout] deadline derived from the request.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	errs := make([]error, len(h.checkers))

	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Go(func() {
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			defer cancel()
			errs[i] = c.Check(ctx)
		})
	}
	wg.Wait()

	res := result{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK
	for i, c := range h.checkers {
		if errs[i] != nil {
			res.Checks[c.Name] = "fail: " + errs[i].Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[c.Name] = "ok"
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
