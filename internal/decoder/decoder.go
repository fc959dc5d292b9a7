// Package decoder implements word-by-word beam search translation. At every
// source position each live hypothesis is expanded with every lexicon
// candidate for the token, and only the best beam-width expansions survive
// into the next step.
package decoder

import (
	"errors"
	"fmt"
	"sort"

	"codeberg.org/snonux/beamtrans/internal/lexicon"
)

// DefaultBeamWidth is the number of hypotheses kept per step unless
// configured otherwise
const DefaultBeamWidth = 5

// ErrInvalidConfiguration is returned for a non-positive beam width or a
// lexicon candidate list that is empty or holds a probability outside [0, 1].
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Lookuper supplies the weighted candidates for a source token. Lookup must
// always return a result; unknown tokens are expected to map to themselves.
type Lookuper interface {
	Lookup(token string) []lexicon.Candidate
}

// Hypothesis is a partial or complete translation with its cumulative
// probability
type Hypothesis struct {
	Translation []string
	Probability float64
}

// extend derives a new hypothesis by appending target and multiplying in p.
// The result never shares its backing array with h.
func (h Hypothesis) extend(target string, p float64) Hypothesis {
	translation := make([]string, len(h.Translation)+1)
	copy(translation, h.Translation)
	translation[len(h.Translation)] = target

	return Hypothesis{
		Translation: translation,
		Probability: h.Probability * p,
	}
}

// StepObserver is called after each pruning step with the zero-based index
// of the consumed token and a copy of the surviving beam
type StepObserver func(step int, beam []Hypothesis)

// Option configures a Decoder
type Option func(*Decoder)

// WithStepObserver registers fn to be called after every decoding step
func WithStepObserver(fn StepObserver) Option {
	return func(d *Decoder) {
		d.observer = fn
	}
}

// Decoder runs beam search against a lexicon. It holds no per-call state
// and may be shared between goroutines if the lexicon is safe for
// concurrent use.
type Decoder struct {
	lex      Lookuper
	width    int
	observer StepObserver
}

// New creates a decoder keeping at most width hypotheses per step
func New(lex Lookuper, width int, opts ...Option) (*Decoder, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: beam width must be at least 1, got %d", ErrInvalidConfiguration, width)
	}
	if lex == nil {
		return nil, fmt.Errorf("%w: lexicon is nil", ErrInvalidConfiguration)
	}

	d := &Decoder{
		lex:   lex,
		width: width,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Width returns the beam width
func (d *Decoder) Width() int {
	return d.width
}

// Observed reports whether a step observer is registered
func (d *Decoder) Observed() bool {
	return d.observer != nil
}

// Decode translates tokens and returns the surviving hypotheses ordered by
// probability, highest first. Equal probabilities keep generation order:
// earlier beam entries first, then lexicon candidate order.
func (d *Decoder) Decode(tokens []string) ([]Hypothesis, error) {
	beam := []Hypothesis{{Translation: []string{}, Probability: 1.0}}

	for i, token := range tokens {
		candidates := d.lex.Lookup(token)
		if err := validateCandidates(token, candidates); err != nil {
			return nil, err
		}

		pool := make([]Hypothesis, 0, len(beam)*len(candidates))
		for _, hyp := range beam {
			for _, c := range candidates {
				pool = append(pool, hyp.extend(c.Target, c.Probability))
			}
		}

		beam = prune(pool, d.width)

		if d.observer != nil {
			d.observer(i, cloneBeam(beam))
		}
	}

	return beam, nil
}

// Decode is a convenience wrapper creating a one-off Decoder
func Decode(tokens []string, lex Lookuper, width int) ([]Hypothesis, error) {
	d, err := New(lex, width)
	if err != nil {
		return nil, err
	}
	return d.Decode(tokens)
}

// prune stably sorts pool by probability descending and keeps the first
// width entries
func prune(pool []Hypothesis, width int) []Hypothesis {
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Probability > pool[j].Probability
	})

	if len(pool) > width {
		pool = pool[:width:width]
	}
	return pool
}

func validateCandidates(token string, candidates []lexicon.Candidate) error {
	if len(candidates) == 0 {
		return fmt.Errorf("%w: no candidates for token %q", ErrInvalidConfiguration, token)
	}
	for _, c := range candidates {
		if !lexicon.ValidProbability(c.Probability) {
			return fmt.Errorf("%w: candidate %q for token %q has probability %v outside [0, 1]",
				ErrInvalidConfiguration, c.Target, token, c.Probability)
		}
	}
	return nil
}

func cloneBeam(beam []Hypothesis) []Hypothesis {
	out := make([]Hypothesis, len(beam))
	for i, h := range beam {
		out[i] = Hypothesis{
			Translation: append([]string(nil), h.Translation...),
			Probability: h.Probability,
		}
	}
	return out
}
