// Package app wires the voxmed components into the running application:
// it owns the dictation sessions and gives each one the segment pipeline,
// vocabulary store, template store, consistency checker, and optional AI
// corrector.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voxmed/voxmed/internal/aicorrect"
	"github.com/voxmed/voxmed/internal/config"
	"github.com/voxmed/voxmed/internal/observe"
	"github.com/voxmed/voxmed/internal/segment"
	"github.com/voxmed/voxmed/internal/template"
	"github.com/voxmed/voxmed/internal/vocab"
)

// Deps carries the shared components injected into the App. Processor and
// Vocab are required; Corrector may be nil when AI correction is disabled.
type Deps struct {
	Processor *segment.Processor
	Vocab     vocab.Store
	Stats     *vocab.Stats
	Templates *template.Store
	Corrector *aicorrect.Corrector
	AIMode    config.AIMode
	Metrics   *observe.Metrics
}

// App owns all live dictation sessions. Safe for concurrent use.
type App struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New validates deps and returns an App with no sessions.
func New(deps Deps) (*App, error) {
	if deps.Processor == nil {
		return nil, fmt.Errorf("app: Processor is required")
	}
	if deps.Vocab == nil {
		return nil, fmt.Errorf("app: Vocab store is required")
	}
	if deps.Stats == nil {
		deps.Stats = vocab.NewStats(0)
	}
	if deps.Templates == nil {
		deps.Templates = template.NewStore()
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.DefaultMetrics()
	}
	if deps.AIMode == "" {
		deps.AIMode = config.AIModeStandard
	}
	return &App{
		deps:     deps,
		sessions: make(map[string]*Session),
	}, nil
}

// CreateSession opens a new dictation session under the given ID.
// Creating an ID that already exists is an error; the existing session
// keeps running.
func (a *App) CreateSession(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("app: session id must not be empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.sessions[id]; exists {
		return nil, fmt.Errorf("app: session %q already exists", id)
	}

	s := newSession(id, a.deps)
	a.sessions[id] = s
	a.deps.Metrics.ActiveSessions.Add(ctx, 1)
	slog.Info("session created", "session", id)
	return s, nil
}

// Session returns the session with the given ID.
func (a *App) Session(id string) (*Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[id]
	return s, ok
}

// CloseSession removes a session. Closing an unknown ID is a no-op.
func (a *App) CloseSession(ctx context.Context, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sessions[id]; !ok {
		return
	}
	delete(a.sessions, id)
	a.deps.Metrics.ActiveSessions.Add(ctx, -1)
	slog.Info("session closed", "session", id)
}

// SessionCount returns the number of live sessions.
func (a *App) SessionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sessions)
}

// Templates exposes the shared template store.
func (a *App) Templates() *template.Store {
	return a.deps.Templates
}

// Vocab exposes the shared vocabulary store.
func (a *App) Vocab() vocab.Store {
	return a.deps.Vocab
}
