package suggest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/beamtrans/internal/lexicon"
)

var (
	// ErrNoAPIKey is returned when the provider has no API key configured
	ErrNoAPIKey = errors.New("API key not found")
	// ErrNoCandidates is returned when a reply holds no usable candidate line
	ErrNoCandidates = errors.New("no usable candidates in reply")
)

const (
	defaultTimeout       = 30 * time.Second
	defaultMaxCandidates = 5
	// consecutive provider failures before the breaker opens
	tripAfter = 3
)

// Options configures a Suggester
type Options struct {
	SourceLanguage string
	TargetLanguage string
	MaxCandidates  int
	Timeout        time.Duration
	// BreakerTimeout is how long the breaker stays open before probing again
	BreakerTimeout time.Duration
}

// DefaultOptions returns English to Vietnamese settings matching the
// built-in dictionary
func DefaultOptions() Options {
	return Options{
		SourceLanguage: "English",
		TargetLanguage: "Vietnamese",
		MaxCandidates:  defaultMaxCandidates,
		Timeout:        defaultTimeout,
		BreakerTimeout: time.Minute,
	}
}

// Suggester asks a language model for weighted word translations. Calls go
// through a circuit breaker so a failing provider is not hammered during a
// long word list.
type Suggester struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	opts     Options
}

// NewSuggester creates a suggester on top of provider
func NewSuggester(provider Provider, opts Options) *Suggester {
	defaults := DefaultOptions()
	if opts.SourceLanguage == "" {
		opts.SourceLanguage = defaults.SourceLanguage
	}
	if opts.TargetLanguage == "" {
		opts.TargetLanguage = defaults.TargetLanguage
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = defaults.MaxCandidates
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = defaults.BreakerTimeout
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "suggest-" + provider.Name(),
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
	})

	return &Suggester{
		provider: provider,
		breaker:  breaker,
		opts:     opts,
	}
}

// Provider returns the underlying provider
func (s *Suggester) Provider() Provider {
	return s.provider
}

// Suggest returns validated candidates for word, most likely first
func (s *Suggester) Suggest(ctx context.Context, word string) ([]lexicon.Candidate, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("word cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	prompt := BuildPrompt(word, s.opts.SourceLanguage, s.opts.TargetLanguage, s.opts.MaxCandidates)

	reply, err := s.breaker.Execute(func() (interface{}, error) {
		return s.provider.Complete(ctx, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion for %q failed: %w", word, err)
	}

	candidates := ParseCandidates(reply.(string), s.opts.MaxCandidates)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoCandidates, word)
	}

	if err := lexicon.Validate(word, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// State returns the circuit breaker state name
func (s *Suggester) State() string {
	return s.breaker.State().String()
}

// BuildPrompt creates the request for up to max translations of word
func BuildPrompt(word, sourceLang, targetLang string, max int) string {
	return fmt.Sprintf(`List up to %d %s translations of the %s word '%s'.
Write one translation per line in the form
translation: probability
where probability is a number between 0 and 1 saying how likely that
translation is in everyday text. Most likely translation first.
Use plain ASCII without diacritics if the target language allows it.`,
		max, targetLang, sourceLang, word)
}

// ParseCandidates extracts "target: probability" lines from a model reply.
// Bullets and numbering are ignored, "=" is accepted in place of ":",
// duplicate targets keep their first occurrence and lines whose probability
// is missing or outside [0, 1] are skipped. At most max candidates are
// returned.
func ParseCandidates(reply string, max int) []lexicon.Candidate {
	var candidates []lexicon.Candidate
	seen := make(map[string]bool)

	for _, line := range strings.Split(reply, "\n") {
		if max > 0 && len(candidates) == max {
			break
		}

		line = stripListMarker(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		sep := strings.LastIndexAny(line, ":=")
		if sep <= 0 {
			continue
		}

		target := strings.Trim(strings.TrimSpace(line[:sep]), `"'`)
		prob, err := strconv.ParseFloat(strings.TrimSpace(line[sep+1:]), 64)
		if err != nil || target == "" || !lexicon.ValidProbability(prob) {
			continue
		}

		if seen[target] {
			continue
		}
		seen[target] = true

		candidates = append(candidates, lexicon.Candidate{Target: target, Probability: prob})
	}

	return candidates
}

// stripListMarker removes a leading "-", "*", "•" or "1." / "1)" marker
func stripListMarker(line string) string {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
