// Package health answers the probes a deployment points at a voxmed node.
//
// Liveness (/healthz) only asserts that the process still serves HTTP.
// Dictation sessions live in memory, so a node must not be restarted over
// a dependency outage it can ride out. Readiness (/readyz) runs the
// registered checkers; a stock deployment registers one, the Postgres
// vocabulary store ping. A node on the in-memory store has no checkers
// and is ready as soon as it listens.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// defaultTimeout bounds one checker run. A vocabulary store that cannot
// answer a ping within this window is not ready, whatever its driver says.
const defaultTimeout = 5 * time.Second

// Checker probes one dependency of the node. Check returns nil when the
// dependency can serve. It must respect ctx, which carries the probe
// deadline.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves the two probe routes. The checker set is fixed at
// construction; the handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
	timeout  time.Duration
}

// New builds a Handler over the given checkers. They run in the order
// given on every /readyz request.
func New(checkers ...Checker) *Handler {
	h := &Handler{timeout: defaultTimeout}
	h.checkers = append(h.checkers, checkers...)
	return h
}

// Register mounts the probe routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// report is the body of every probe response. Checks is keyed by checker
// name and omitted entirely on /healthz.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz answers the liveness probe. It never consults the checkers.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, report{Status: "ok"})
}

// Readyz answers the readiness probe: 200 when every checker passes, 503
// with the failing checks named otherwise.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks, ready := h.run(r.Context())

	rep := report{Status: "ok", Checks: checks}
	code := http.StatusOK
	if !ready {
		rep.Status = "fail"
		code = http.StatusServiceUnavailable
	}
	respond(w, code, rep)
}

// run evaluates every checker, each under its own deadline derived from
// ctx. It reports the per-check outcomes and whether all of them passed.
func (h *Handler) run(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(h.checkers))
	ready := true

	for _, c := range h.checkers {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := c.Check(cctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			ready = false
			continue
		}
		checks[c.Name] = "ok"
	}
	return checks, ready
}

func respond(w http.ResponseWriter, code int, rep report) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
