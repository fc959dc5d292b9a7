package lexicon

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrInvalidEntry is returned when a lexicon entry violates the probability
// or non-empty constraints.
var ErrInvalidEntry = errors.New("invalid lexicon entry")

// Candidate is a single weighted translation of a source token
type Candidate struct {
	Target      string  `yaml:"target"`
	Probability float64 `yaml:"probability"`
}

// Lexicon maps source tokens to weighted target candidates. It is safe for
// concurrent use.
type Lexicon struct {
	mu      sync.RWMutex
	entries map[string][]Candidate
}

// New creates a lexicon from the given entries. Entries are validated and
// copied.
func New(entries map[string][]Candidate) (*Lexicon, error) {
	l := &Lexicon{
		entries: make(map[string][]Candidate, len(entries)),
	}
	for word, candidates := range entries {
		if err := Validate(word, candidates); err != nil {
			return nil, err
		}
		l.entries[word] = copyCandidates(candidates)
	}
	return l, nil
}

// Lookup returns the candidates for token. Unknown tokens get an identity
// entry (token, 1.0) which is stored for later lookups.
func (l *Lexicon) Lookup(token string) []Candidate {
	l.mu.RLock()
	candidates, ok := l.entries[token]
	l.mu.RUnlock()
	if ok {
		return copyCandidates(candidates)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another goroutine may have inserted it in between
	if candidates, ok = l.entries[token]; !ok {
		candidates = []Candidate{{Target: token, Probability: 1.0}}
		l.entries[token] = candidates
	}
	return copyCandidates(candidates)
}

// Entry returns the stored candidates for word without inserting a fallback
func (l *Lexicon) Entry(word string) ([]Candidate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	candidates, ok := l.entries[word]
	if !ok {
		return nil, false
	}
	return copyCandidates(candidates), true
}

// Add inserts or replaces the entry for word
func (l *Lexicon) Add(word string, candidates []Candidate) error {
	if err := Validate(word, candidates); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[word] = copyCandidates(candidates)
	return nil
}

// Len returns the number of stored entries, fallback entries included
func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Words returns all stored source words in sorted order
func (l *Lexicon) Words() []string {
	l.mu.RLock()
	words := make([]string, 0, len(l.entries))
	for word := range l.entries {
		words = append(words, word)
	}
	l.mu.RUnlock()

	sort.Strings(words)
	return words
}

// Entries returns a deep copy of all entries
func (l *Lexicon) Entries() map[string][]Candidate {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string][]Candidate, len(l.entries))
	for word, candidates := range l.entries {
		result[word] = copyCandidates(candidates)
	}
	return result
}

// Validate checks that word is non-empty and candidates is a non-empty list
// of targets with finite probabilities in [0, 1].
func Validate(word string, candidates []Candidate) error {
	if word == "" {
		return fmt.Errorf("%w: empty source word", ErrInvalidEntry)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %q has no candidates", ErrInvalidEntry, word)
	}
	for i, c := range candidates {
		if c.Target == "" {
			return fmt.Errorf("%w: %q candidate %d has an empty target", ErrInvalidEntry, word, i)
		}
		if !ValidProbability(c.Probability) {
			return fmt.Errorf("%w: %q candidate %q has probability %v outside [0, 1]",
				ErrInvalidEntry, word, c.Target, c.Probability)
		}
	}
	return nil
}

// ValidProbability reports whether p is a finite number in [0, 1]
func ValidProbability(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0 && p <= 1
}

func copyCandidates(candidates []Candidate) []Candidate {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	return out
}
