package vocab

import (
	"sort"
	"strings"
	"sync"
)

// DefaultProposeThreshold is how many times the same manual correction must
// be seen before it is proposed for learning.
const DefaultProposeThreshold = 3

// Stats tracks how often each manual correction recurs across sessions and
// decides when a pair has earned a learning proposal. Safe for concurrent
// use.
type Stats struct {
	mu        sync.RWMutex
	threshold int
	counts    map[string]map[string]int
	proposed  map[string]bool
}

// NewStats returns a tracker with the given proposal threshold; values
// below one fall back to [DefaultProposeThreshold].
func NewStats(threshold int) *Stats {
	if threshold < 1 {
		threshold = DefaultProposeThreshold
	}
	return &Stats{
		threshold: threshold,
		counts:    make(map[string]map[string]int),
		proposed:  make(map[string]bool),
	}
}

// Record registers one observation of original being corrected to
// corrected and returns the updated count. Blank sides are ignored.
func (s *Stats) Record(original, corrected string) int {
	original = strings.ToLower(strings.TrimSpace(original))
	corrected = strings.TrimSpace(corrected)
	if original == "" || corrected == "" {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	byCorr := s.counts[original]
	if byCorr == nil {
		byCorr = make(map[string]int)
		s.counts[original] = byCorr
	}
	byCorr[corrected]++
	return byCorr[corrected]
}

// Count returns how often the exact pair has been recorded.
func (s *Stats) Count(original, corrected string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[strings.ToLower(strings.TrimSpace(original))][strings.TrimSpace(corrected)]
}

// ShouldPropose reports whether the pair has reached the threshold and has
// not been proposed before. The first affirmative answer marks the pair
// proposed, so each pair is surfaced to the user at most once.
func (s *Stats) ShouldPropose(original, corrected string) bool {
	original = strings.ToLower(strings.TrimSpace(original))
	corrected = strings.TrimSpace(corrected)
	key := original + "\x00" + corrected

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proposed[key] {
		return false
	}
	if s.counts[original][corrected] < s.threshold {
		return false
	}
	s.proposed[key] = true
	return true
}

// Proposal is one pair at or above the threshold.
type Proposal struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Count     int    `json:"count"`
}

// Proposals lists every pair at or above the threshold, most frequent
// first, then by original for determinism. Listing does not mark pairs as
// proposed.
func (s *Stats) Proposals() []Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Proposal
	for original, byCorr := range s.counts {
		for corrected, n := range byCorr {
			if n >= s.threshold {
				out = append(out, Proposal{Original: original, Corrected: corrected, Count: n})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Original != out[j].Original {
			return out[i].Original < out[j].Original
		}
		return out[i].Corrected < out[j].Corrected
	})
	return out
}
