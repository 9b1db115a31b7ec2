package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/voxmed/voxmed/internal/config"
	"github.com/voxmed/voxmed/internal/consistency"
	"github.com/voxmed/voxmed/internal/observe"
	"github.com/voxmed/voxmed/internal/review"
	"github.com/voxmed/voxmed/internal/segment"
	"github.com/voxmed/voxmed/internal/variants"
	"github.com/voxmed/voxmed/internal/vocab"
)

// ErrNoCorrector is returned when AI correction is requested but no model
// backend is configured.
var ErrNoCorrector = fmt.Errorf("app: no AI corrector configured")

// Update is the state pushed to the client after each handled event.
type Update struct {
	// Doc is the current document.
	Doc segment.Document `json:"doc"`
	// Applied reports whether the event changed the document.
	Applied bool `json:"applied"`
	// Command names the voice command that was executed, if any.
	Command string `json:"command,omitempty"`
}

// Session is one dictation session: the report document, the recogniser
// dedup state, the undo snapshot, and the active review, if any.
// All methods are safe for concurrent use.
type Session struct {
	id   string
	deps Deps

	mu     chanLock
	doc    segment.Document
	prev   *segment.Document
	state  segment.State
	review *review.Session
}

// chanLock is a context-aware mutex. Lock acquisition respects context
// cancellation so a slow AI pass cannot wedge every caller behind it.
type chanLock chan struct{}

func newChanLock() chanLock {
	l := make(chanLock, 1)
	l <- struct{}{}
	return l
}

func (l chanLock) lock(ctx context.Context) error {
	select {
	case <-l:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l chanLock) unlock() {
	l <- struct{}{}
}

func newSession(id string, deps Deps) *Session {
	return &Session{id: id, deps: deps, mu: newChanLock()}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Document returns the current document.
func (s *Session) Document(ctx context.Context) (segment.Document, error) {
	if err := s.mu.lock(ctx); err != nil {
		return segment.Document{}, err
	}
	defer s.mu.unlock()
	return s.doc, nil
}

// SetSelection moves the caret or selection.
func (s *Session) SetSelection(ctx context.Context, start, end int) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	defer s.mu.unlock()
	s.doc.SelStart = start
	s.doc.SelEnd = end
	return nil
}

// HandleEvent runs one recogniser event through the pipeline and applies
// the result to the document. Interim and duplicate events leave the
// document untouched.
func (s *Session) HandleEvent(ctx context.Context, ev segment.Event) (Update, error) {
	if err := s.mu.lock(ctx); err != nil {
		return Update{}, err
	}
	defer s.mu.unlock()

	userDict := s.userDict(ctx)

	start := time.Now()
	snapshot := s.doc
	st, doc, cmd, applied := s.deps.Processor.ApplyEvent(s.state, s.doc, ev, userDict, s.deps.Templates.Lookup)
	s.deps.Metrics.SegmentDuration.Record(ctx, time.Since(start).Seconds())

	s.state = st
	upd := Update{Applied: applied}

	switch {
	case cmd == segment.CommandUndo:
		if s.prev != nil {
			s.doc = *s.prev
			s.prev = nil
		}
		upd.Command = "undo"
		s.deps.Metrics.RecordSegment(ctx, "command")

	case applied:
		s.prev = &snapshot
		s.doc = doc
		s.deps.Metrics.RecordSegment(ctx, "dictation")

	default:
		s.deps.Metrics.RecordSegment(ctx, "dropped")
	}

	upd.Doc = s.doc
	return upd, nil
}

// EditText replaces the document after a manual keyboard edit. Word-level
// changes against the previous text are recorded in the learning stats;
// pairs that cross the recurrence threshold are returned as proposals.
func (s *Session) EditText(ctx context.Context, text string, selStart, selEnd int) ([]vocab.Proposal, error) {
	if err := s.mu.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.unlock()

	var proposals []vocab.Proposal
	for _, p := range review.ExtractPairs(review.Diff(s.doc.Text, text)) {
		count := s.deps.Stats.Record(p.Original, p.Corrected)
		if s.deps.Stats.ShouldPropose(p.Original, p.Corrected) {
			proposals = append(proposals, vocab.Proposal{
				Original:  p.Original,
				Corrected: p.Corrected,
				Count:     count,
			})
		}
	}

	s.doc = segment.Document{Text: text, SelStart: selStart, SelEnd: selEnd}
	s.prev = nil
	return proposals, nil
}

// RunAICorrection runs one AI pass over the document and opens a review
// session over the result. The document itself is not changed until
// [Session.ApplyReview].
func (s *Session) RunAICorrection(ctx context.Context) (*review.Session, error) {
	if s.deps.Corrector == nil {
		return nil, ErrNoCorrector
	}
	if err := s.mu.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.unlock()

	userDict := s.userDict(ctx)
	mode := string(s.deps.AIMode)

	start := time.Now()
	var corrected string
	var err error
	if s.deps.AIMode == config.AIModeSentinel {
		var sentinel string
		corrected, sentinel, err = s.deps.Corrector.CorrectSentinel(ctx, s.doc.Text, s.state.LastSentinel, userDict)
		if err == nil {
			s.state.LastSentinel = sentinel
		}
	} else {
		corrected, err = s.deps.Corrector.Correct(ctx, s.doc.Text, userDict)
	}
	s.deps.Metrics.AICorrectionDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		s.deps.Metrics.RecordAIRequest(ctx, "corrector", mode, "error")
		return nil, fmt.Errorf("app: ai correction: %w", err)
	}
	s.deps.Metrics.RecordAIRequest(ctx, "corrector", mode, "ok")

	s.review = review.NewSession(s.doc.Text, corrected)
	return s.review, nil
}

// Review returns the active review session, if any.
func (s *Session) Review(ctx context.Context) (*review.Session, bool, error) {
	if err := s.mu.lock(ctx); err != nil {
		return nil, false, err
	}
	defer s.mu.unlock()
	return s.review, s.review != nil, nil
}

// ResolveChunk accepts or rejects one change in the active review.
func (s *Session) ResolveChunk(ctx context.Context, chunkID int, accept bool) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	defer s.mu.unlock()

	if s.review == nil {
		return fmt.Errorf("app: resolve chunk: %w", review.ErrNotFound)
	}
	var err error
	decision := "reject"
	if accept {
		decision = "accept"
		err = s.review.Accept(chunkID)
	} else {
		err = s.review.Reject(chunkID)
	}
	if err != nil {
		return err
	}
	s.deps.Metrics.RecordReviewDecision(ctx, decision)
	return nil
}

// SaveReviewPair learns one pair from the active review into the user
// vocabulary, along with its spelling variants. Saving the same pair twice
// is a no-op.
func (s *Session) SaveReviewPair(ctx context.Context, pairID int) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	defer s.mu.unlock()

	if s.review == nil {
		return fmt.Errorf("app: save pair: %w", review.ErrNotFound)
	}
	return s.review.SavePair(pairID, func(p review.Pair) error {
		return s.learnPair(ctx, p.Original, p.Corrected, "review")
	})
}

// ApplyReview folds the reviewed text back into the document and closes
// the review. Pending changes count as accepted.
func (s *Session) ApplyReview(ctx context.Context) (segment.Document, error) {
	if err := s.mu.lock(ctx); err != nil {
		return segment.Document{}, err
	}
	defer s.mu.unlock()

	if s.review == nil {
		return s.doc, fmt.Errorf("app: apply review: %w", review.ErrNotFound)
	}

	text := s.review.Reconstruct()
	s.prev = nil
	s.doc = segment.Document{Text: text, SelStart: len(text), SelEnd: len(text)}
	if s.deps.AIMode == config.AIModeSentinel {
		s.state.LastSentinel = text
	}
	s.review = nil
	return s.doc, nil
}

// DiscardReview drops the active review without touching the document.
func (s *Session) DiscardReview(ctx context.Context) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	defer s.mu.unlock()
	s.review = nil
	return nil
}

// LearnPair adds a correction pair and its variants to the vocabulary,
// outside any review (accepted proposals, manual dictionary edits).
func (s *Session) LearnPair(ctx context.Context, original, corrected string) error {
	if err := s.mu.lock(ctx); err != nil {
		return err
	}
	defer s.mu.unlock()
	return s.learnPair(ctx, original, corrected, "proposal")
}

// learnPair stores the pair and every generated variant. Callers must hold
// the session lock.
func (s *Session) learnPair(ctx context.Context, original, corrected string, source string) error {
	pairs := variants.GeneratePairs(original, corrected, variants.Options{})
	if len(pairs) == 0 {
		return fmt.Errorf("app: learn pair: empty original or corrected form")
	}
	for orig, corr := range pairs {
		if err := s.deps.Vocab.Add(ctx, orig, corr); err != nil {
			return fmt.Errorf("app: learn pair %q: %w", orig, err)
		}
	}
	s.deps.Metrics.RecordVocabularyLearned(ctx, source)
	slog.Info("vocabulary pair learned",
		"session", s.id,
		"original", original,
		"corrected", corrected,
		"variants", len(pairs)-1,
		"source", source,
	)
	return nil
}

// CheckConsistency scans the current document for clinical contradictions.
func (s *Session) CheckConsistency(ctx context.Context) ([]consistency.Issue, error) {
	if err := s.mu.lock(ctx); err != nil {
		return nil, err
	}
	text := s.doc.Text
	s.mu.unlock()

	issues := consistency.Check(text)
	for _, is := range issues {
		s.deps.Metrics.ConsistencyIssues.Add(ctx, 1,
			metric.WithAttributes(observe.Attr("type", string(is.Type))))
	}
	return issues, nil
}

// Proposals lists learning proposals currently above the threshold.
func (s *Session) Proposals() []vocab.Proposal {
	return s.deps.Stats.Proposals()
}

// userDict loads the vocabulary, falling back to an empty dictionary when
// the store is unreachable so dictation keeps flowing.
func (s *Session) userDict(ctx context.Context) map[string]string {
	dict, err := s.deps.Vocab.All(ctx)
	if err != nil {
		slog.Warn("vocabulary unavailable, processing without user dictionary",
			"session", s.id, "err", err)
		return nil
	}
	return dict
}
