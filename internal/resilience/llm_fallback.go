package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxmed/voxmed/pkg/provider/llm"
)

// ErrAllFailed is returned when every backend in an [LLMFallback] fails or
// has an open breaker.
var ErrAllFailed = errors.New("resilience: all backends failed")

// LLMFallback implements [llm.Provider] with failover across multiple
// backends. Each backend has its own [Breaker]; a tripped primary is
// bypassed in favour of the next healthy fallback.
type LLMFallback struct {
	backends []backend
	opts     []BreakerOption
}

type backend struct {
	provider llm.Provider
	breaker  *Breaker
}

var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred
// backend. The breaker options apply to every backend added.
func NewLLMFallback(primary llm.Provider, opts ...BreakerOption) *LLMFallback {
	f := &LLMFallback{opts: opts}
	f.add(primary)
	return f
}

// AddFallback registers an additional backend, tried after all earlier ones.
func (f *LLMFallback) AddFallback(provider llm.Provider) {
	f.add(provider)
}

func (f *LLMFallback) add(p llm.Provider) {
	f.backends = append(f.backends, backend{
		provider: p,
		breaker:  NewBreaker(p.Name(), f.opts...),
	})
}

// Complete sends the request to the first healthy backend. Backends with an
// open breaker are skipped; a failing backend advances to the next one.
func (f *LLMFallback) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var lastErr error
	for _, b := range f.backends {
		var resp *llm.CompletionResponse
		err := b.breaker.Do(func() error {
			var inner error
			resp, inner = b.provider.Complete(ctx, req)
			return inner
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping backend, breaker open", "backend", b.provider.Name())
		} else {
			slog.Warn("backend failed, trying next", "backend", b.provider.Name(), "err", err)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// Name lists the chained backend names.
func (f *LLMFallback) Name() string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.provider.Name()
	}
	return strings.Join(names, ">")
}
