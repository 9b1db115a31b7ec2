// Package review computes word-level differences between an original text
// and a corrected version, and drives the interactive accept/reject review
// of those differences.
//
// The diff is whitespace-preserving: texts are split into alternating word
// and whitespace tokens, a longest common subsequence is computed over the
// tokens, and the concatenation invariants hold exactly. Accepting every
// change reconstructs the corrected text byte for byte; rejecting every
// change reconstructs the original.
package review

import (
	"errors"
	"strings"

	"github.com/voxmed/voxmed/internal/segment/token"
)

// ErrNotFound is returned when a chunk or pair ID does not exist in the
// session.
var ErrNotFound = errors.New("review: not found")

// Chunk is one run of the diff. Exactly one of the three states holds:
// unchanged (neither flag), removed (present only in the original), or
// added (present only in the corrected text).
type Chunk struct {
	Value   string
	Added   bool
	Removed bool
}

// Diff computes the word-level difference between original and modified.
// Adjacent tokens with the same change state are merged, so a replaced word
// surfaces as one removed chunk directly followed by one added chunk.
// Identical inputs yield a single unchanged chunk (or none, for empty input).
func Diff(original, modified string) []Chunk {
	if original == modified {
		if original == "" {
			return nil
		}
		return []Chunk{{Value: original}}
	}

	a := token.Split(original)
	b := token.Split(modified)

	// dp[i][j] holds the LCS length of a[i:] and b[j:].
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var chunks []Chunk
	emit := func(val string, added, removed bool) {
		if n := len(chunks); n > 0 && chunks[n-1].Added == added && chunks[n-1].Removed == removed {
			chunks[n-1].Value += val
			return
		}
		chunks = append(chunks, Chunk{Value: val, Added: added, Removed: removed})
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			emit(a[i], false, false)
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			// Removals before additions, so a replacement reads
			// original-then-correction.
			emit(a[i], false, true)
			i++
		default:
			emit(b[j], true, false)
			j++
		}
	}
	for ; i < len(a); i++ {
		emit(a[i], false, true)
	}
	for ; j < len(b); j++ {
		emit(b[j], true, false)
	}
	return chunks
}

// Reconstruct assembles the reviewed text from chunks and a per-chunk
// accept decision: unchanged chunks always appear, added chunks appear when
// accepted, removed chunks appear when rejected.
func Reconstruct(chunks []Chunk, accepted func(i int) bool) string {
	var b strings.Builder
	for i, c := range chunks {
		switch {
		case c.Added:
			if accepted(i) {
				b.WriteString(c.Value)
			}
		case c.Removed:
			if !accepted(i) {
				b.WriteString(c.Value)
			}
		default:
			b.WriteString(c.Value)
		}
	}
	return b.String()
}

// Status is the review decision on one change.
type Status int

const (
	// StatusPending means the change has not been decided yet. Pending
	// changes reconstruct as accepted.
	StatusPending Status = iota
	// StatusAccepted keeps the correction.
	StatusAccepted
	// StatusRejected restores the original text.
	StatusRejected
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// ReviewChunk is a diff chunk with its position and review state.
type ReviewChunk struct {
	ID     int
	Chunk  Chunk
	Status Status
}

// Pair is one original→corrected word pair extracted from a diff, suitable
// for saving into the user vocabulary.
type Pair struct {
	Original  string
	Corrected string
}

// ReviewPair is an extractable pair with its session state.
type ReviewPair struct {
	ID    int
	Pair  Pair
	Saved bool
}

// Session holds the mutable review state for one original/corrected text
// pair. Sessions are not safe for concurrent use; the owning controller
// serialises access.
type Session struct {
	chunks []ReviewChunk
	pairs  []ReviewPair
}

// NewSession diffs the two texts and prepares a review session over the
// result.
func NewSession(original, corrected string) *Session {
	diff := Diff(original, corrected)
	s := &Session{chunks: make([]ReviewChunk, len(diff))}
	for i, c := range diff {
		s.chunks[i] = ReviewChunk{ID: i, Chunk: c}
	}
	for i, p := range ExtractPairs(diff) {
		s.pairs = append(s.pairs, ReviewPair{ID: i, Pair: p})
	}
	return s
}

// Chunks returns a copy of the session's chunks in document order.
func (s *Session) Chunks() []ReviewChunk {
	out := make([]ReviewChunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Changed returns the number of chunks that carry a change.
func (s *Session) Changed() int {
	n := 0
	for _, c := range s.chunks {
		if c.Chunk.Added || c.Chunk.Removed {
			n++
		}
	}
	return n
}

// Accept marks the identified change as accepted.
func (s *Session) Accept(id int) error { return s.set(id, StatusAccepted) }

// Reject marks the identified change as rejected.
func (s *Session) Reject(id int) error { return s.set(id, StatusRejected) }

// Toggle flips the identified change between accepted and rejected.
// A pending change toggles to rejected, since pending already renders as
// accepted.
func (s *Session) Toggle(id int) error {
	for i := range s.chunks {
		if s.chunks[i].ID != id {
			continue
		}
		if !s.chunks[i].Chunk.Added && !s.chunks[i].Chunk.Removed {
			return ErrNotFound
		}
		if s.chunks[i].Status == StatusRejected {
			s.chunks[i].Status = StatusAccepted
		} else {
			s.chunks[i].Status = StatusRejected
		}
		return nil
	}
	return ErrNotFound
}

// AcceptAll accepts every change in the session.
func (s *Session) AcceptAll() {
	for i := range s.chunks {
		if s.chunks[i].Chunk.Added || s.chunks[i].Chunk.Removed {
			s.chunks[i].Status = StatusAccepted
		}
	}
}

// RejectAll rejects every change in the session.
func (s *Session) RejectAll() {
	for i := range s.chunks {
		if s.chunks[i].Chunk.Added || s.chunks[i].Chunk.Removed {
			s.chunks[i].Status = StatusRejected
		}
	}
}

func (s *Session) set(id int, st Status) error {
	for i := range s.chunks {
		if s.chunks[i].ID != id {
			continue
		}
		if !s.chunks[i].Chunk.Added && !s.chunks[i].Chunk.Removed {
			return ErrNotFound
		}
		s.chunks[i].Status = st
		return nil
	}
	return ErrNotFound
}

// Reconstruct assembles the session's current text. Pending changes count
// as accepted.
func (s *Session) Reconstruct() string {
	chunks := make([]Chunk, len(s.chunks))
	for i, c := range s.chunks {
		chunks[i] = c.Chunk
	}
	return Reconstruct(chunks, func(i int) bool {
		return s.chunks[i].Status != StatusRejected
	})
}

// Pairs returns a copy of the extractable vocabulary pairs.
func (s *Session) Pairs() []ReviewPair {
	out := make([]ReviewPair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// SavePair persists the identified pair through save exactly once. A pair
// already saved in this session is a no-op, so repeated save requests from
// the UI cannot duplicate vocabulary entries.
func (s *Session) SavePair(id int, save func(Pair) error) error {
	for i := range s.pairs {
		if s.pairs[i].ID != id {
			continue
		}
		if s.pairs[i].Saved {
			return nil
		}
		if err := save(s.pairs[i].Pair); err != nil {
			return err
		}
		s.pairs[i].Saved = true
		return nil
	}
	return ErrNotFound
}

// ExtractPairs collects original→corrected word pairs from adjacent
// removed/added chunk pairs (in either order). Values are trimmed; pairs
// with an empty side or differing only in case are skipped.
func ExtractPairs(chunks []Chunk) []Pair {
	var pairs []Pair
	for i := 0; i+1 < len(chunks); i++ {
		a, b := chunks[i], chunks[i+1]

		var orig, corr string
		switch {
		case a.Removed && b.Added:
			orig, corr = a.Value, b.Value
		case a.Added && b.Removed:
			orig, corr = b.Value, a.Value
		default:
			continue
		}

		orig = strings.TrimSpace(orig)
		corr = strings.TrimSpace(corr)
		if orig == "" || corr == "" {
			continue
		}
		if strings.EqualFold(orig, corr) {
			continue
		}
		pairs = append(pairs, Pair{Original: orig, Corrected: corr})
		i++
	}
	return pairs
}
