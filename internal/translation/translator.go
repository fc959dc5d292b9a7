package translation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"codeberg.org/snonux/beamtrans/internal"
	"codeberg.org/snonux/beamtrans/internal/batch"
	"codeberg.org/snonux/beamtrans/internal/decoder"
	"codeberg.org/snonux/beamtrans/internal/lexicon"
)

// Result is the ranked outcome of translating one sentence
type Result struct {
	Source     string
	Tokens     []string
	Hypotheses []decoder.Hypothesis
}

// Best returns the highest ranked translation joined by spaces
func (r *Result) Best() string {
	if len(r.Hypotheses) == 0 {
		return ""
	}
	return strings.Join(r.Hypotheses[0].Translation, " ")
}

// Translator translates sentences with a beam decoder
type Translator struct {
	lex       *lexicon.Lexicon
	decoder   *decoder.Decoder
	normalize bool
	cache     *TranslationCache
}

// NewTranslator creates a translator over lex keeping beamWidth hypotheses
// per step. With normalize set, sentences are NFKC-normalized before
// tokenizing.
func NewTranslator(lex *lexicon.Lexicon, beamWidth int, normalize bool, opts ...decoder.Option) (*Translator, error) {
	if lex == nil {
		return nil, fmt.Errorf("lexicon not configured")
	}

	dec, err := decoder.New(lex, beamWidth, opts...)
	if err != nil {
		return nil, err
	}

	return &Translator{
		lex:       lex,
		decoder:   dec,
		normalize: normalize,
		cache:     NewTranslationCache(),
	}, nil
}

// Lexicon returns the lexicon used by the translator
func (t *Translator) Lexicon() *lexicon.Lexicon {
	return t.lex
}

// BeamWidth returns the configured beam width
func (t *Translator) BeamWidth() int {
	return t.decoder.Width()
}

// TranslateSentence tokenizes and decodes a sentence. Results are cached per
// sentence, so repeated sentences are decoded only once. With a step
// observer every call decodes, so each sentence reports its steps.
func (t *Translator) TranslateSentence(sentence string) (*Result, error) {
	if !t.decoder.Observed() {
		if cached, ok := t.cache.Get(sentence); ok {
			return cached, nil
		}
	}

	tokens := batch.Tokenize(sentence, t.normalize)

	hypotheses, err := t.decoder.Decode(tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to translate %q: %w", sentence, err)
	}

	result := &Result{
		Source:     sentence,
		Tokens:     tokens,
		Hypotheses: hypotheses,
	}
	t.cache.Add(sentence, result)
	return result, nil
}

// Cache returns the translator's result cache
func (t *Translator) Cache() *TranslationCache {
	return t.cache
}

// SaveTranslation writes the ranked result into dir. The file is named after
// the sanitized source sentence and holds "source = best" followed by every
// ranked hypothesis. It returns the written path.
func SaveTranslation(dir string, result *Result) (string, error) {
	name := internal.SanitizeFilename(result.Source)
	if name == "" {
		name = "empty"
	}
	outputFile := filepath.Join(dir, name+".txt")

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s = %s\n", result.Source, result.Best())
	for i, h := range result.Hypotheses {
		fmt.Fprintf(&sb, "%d\t%.4f\t%s\n", i+1, h.Probability, strings.Join(h.Translation, " "))
	}

	if err := os.WriteFile(outputFile, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write translation file: %w", err)
	}

	return outputFile, nil
}

// TranslationCache stores sentence results in memory for batch operations
type TranslationCache struct {
	mu           sync.RWMutex
	translations map[string]*Result
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]*Result),
	}
}

// Add adds a result to the cache
func (tc *TranslationCache) Add(sentence string, result *Result) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations[sentence] = result
}

// Get retrieves a result from the cache
func (tc *TranslationCache) Get(sentence string) (*Result, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	result, ok := tc.translations[sentence]
	return result, ok
}

// Len returns the number of cached sentences
func (tc *TranslationCache) Len() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.translations)
}

// Clear drops all cached results. Call it after the lexicon changes.
func (tc *TranslationCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.translations = make(map[string]*Result)
}
