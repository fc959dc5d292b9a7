package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/snonux/beamtrans/internal/archive"
	"codeberg.org/snonux/beamtrans/internal/cli"
	"codeberg.org/snonux/beamtrans/internal/lexicon"
	"codeberg.org/snonux/beamtrans/internal/models"
	"codeberg.org/snonux/beamtrans/internal/suggest"
)

// ListLexicon prints the given words of the active lexicon, or every entry
// when words is empty
func (p *Processor) ListLexicon(words []string) error {
	lex := p.translator.Lexicon()
	if len(words) == 0 {
		words = lex.Words()
	}

	fmt.Fprintf(p.out, "Lexicon: %s (%d entries)\n", p.lexiconDisplayName(), lex.Len())
	for _, word := range words {
		candidates, ok := lex.Entry(word)
		if !ok {
			fmt.Fprintf(p.out, "  %s: (not found, copied unchanged)\n", word)
			continue
		}
		fmt.Fprintf(p.out, "  %s: %s\n", word, formatCandidates(candidates))
	}
	return nil
}

// ImportLexicon loads src and writes it to dst, backing up an existing dst
func (p *Processor) ImportLexicon(src, dst string) error {
	lex, err := lexicon.Load(src)
	if err != nil {
		return err
	}

	if err := p.backup(dst); err != nil {
		return err
	}

	if err := writeLexicon(lex, dst); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Imported %d entries from %s into %s\n", lex.Len(), src, dst)
	return nil
}

// ExportLexicon writes the active lexicon to dst
func (p *Processor) ExportLexicon(dst string) error {
	lex := p.translator.Lexicon()

	if err := p.backup(dst); err != nil {
		return err
	}

	if err := writeLexicon(lex, dst); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Exported %d entries to %s\n", lex.Len(), dst)
	return nil
}

// AddEntry stores word with candidates given as "target:probability"
// strings in the SQLite lexicon
func (p *Processor) AddEntry(word string, specs []string) error {
	candidates, err := ParseCandidateSpecs(specs)
	if err != nil {
		return err
	}

	store, err := p.openWritableStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Put(word, candidates); err != nil {
		return err
	}
	if err := p.translator.Lexicon().Add(word, candidates); err != nil {
		return err
	}
	p.translator.Cache().Clear()

	fmt.Fprintf(p.out, "Stored %s: %s in %s\n", word, formatCandidates(candidates), store.Path())
	return nil
}

// SuggestWords asks the configured provider for candidates of each word and
// stores them in the SQLite lexicon. Words already in the lexicon are
// skipped. With DryRun set nothing is stored.
func (p *Processor) SuggestWords(ctx context.Context, words []string) error {
	provider, err := p.newProvider(p.flags.Provider, cli.GetAPIKey(p.flags.Provider), p.flags.Model)
	if err != nil {
		return err
	}

	suggester := suggest.NewSuggester(provider, suggest.Options{
		SourceLanguage: p.flags.SourceLanguage,
		TargetLanguage: p.flags.TargetLanguage,
		MaxCandidates:  p.flags.MaxCandidates,
	})

	var store *lexicon.Store
	if !p.flags.DryRun {
		store, err = p.openWritableStore()
		if err != nil {
			return err
		}
		defer store.Close()
	}

	// Track statistics
	storedCount := 0
	skippedCount := 0
	errorCount := 0

	for i, word := range words {
		fmt.Fprintf(p.out, "\nSuggesting %d/%d: %s\n", i+1, len(words), word)

		if known, ok := p.translator.Lexicon().Entry(word); ok && !isFallback(word, known) {
			fmt.Fprintf(p.out, "  ✓ Skipping '%s' - already in lexicon\n", word)
			skippedCount++
			continue
		}

		candidates, err := suggester.Suggest(ctx, word)
		if err != nil {
			fmt.Fprintf(p.errOut, "Error suggesting '%s': %v\n", word, err)
			errorCount++
			continue
		}
		fmt.Fprintf(p.out, "  %s\n", formatCandidates(candidates))

		if p.flags.DryRun {
			continue
		}

		if err := store.Put(word, candidates); err != nil {
			fmt.Fprintf(p.errOut, "Error storing '%s': %v\n", word, err)
			errorCount++
			continue
		}
		if err := p.translator.Lexicon().Add(word, candidates); err != nil {
			return err
		}
		storedCount++
	}
	p.translator.Cache().Clear()

	fmt.Fprintf(p.out, "\n=== Suggestion Summary ===\n")
	fmt.Fprintf(p.out, "Provider: %s\n", provider.Name())
	fmt.Fprintf(p.out, "Total words: %d\n", len(words))
	fmt.Fprintf(p.out, "Stored: %d\n", storedCount)
	fmt.Fprintf(p.out, "Skipped (already known): %d\n", skippedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.out, "==========================\n")

	if errorCount > 0 && storedCount == 0 && skippedCount == 0 && !p.flags.DryRun {
		return fmt.Errorf("no suggestions could be stored")
	}
	return nil
}

// ListModels prints the OpenAI chat models usable for suggestions
func (p *Processor) ListModels(ctx context.Context) error {
	return models.NewLister(cli.GetOpenAIKey()).ListAvailableModels(ctx, p.out)
}

// ParseCandidateSpecs parses "target:probability" strings. The last colon
// separates the probability, so targets may contain colons.
func ParseCandidateSpecs(specs []string) ([]lexicon.Candidate, error) {
	candidates := make([]lexicon.Candidate, 0, len(specs))
	for _, spec := range specs {
		sep := strings.LastIndex(spec, ":")
		if sep <= 0 {
			return nil, fmt.Errorf("invalid candidate %q: expected TARGET:PROBABILITY", spec)
		}

		prob, err := strconv.ParseFloat(strings.TrimSpace(spec[sep+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid probability in %q: %w", spec, err)
		}

		candidates = append(candidates, lexicon.Candidate{
			Target:      strings.TrimSpace(spec[:sep]),
			Probability: prob,
		})
	}
	return candidates, nil
}

// openWritableStore opens the SQLite lexicon that receives new entries. A
// new, empty store is seeded with the built-in dictionary.
func (p *Processor) openWritableStore() (*lexicon.Store, error) {
	path := p.lexiconPath
	if path == "" {
		path = cli.DefaultLexiconPath()
	}
	if !lexicon.IsStorePath(path) {
		return nil, fmt.Errorf("lexicon %s is not a SQLite store; use --lexicon with a .db file", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lexicon directory: %w", err)
	}

	store, err := lexicon.OpenStore(path)
	if err != nil {
		return nil, err
	}

	existing, err := store.Load()
	if err != nil {
		store.Close()
		return nil, err
	}
	if existing.Len() == 0 {
		fmt.Fprintf(p.out, "Creating lexicon %s from the built-in dictionary\n", path)
		if err := store.Save(lexicon.Default()); err != nil {
			store.Close()
			return nil, err
		}
	}

	return store, nil
}

func (p *Processor) backup(path string) error {
	backupPath, err := archive.BackupFile(path)
	if err != nil {
		return err
	}
	if backupPath != "" {
		fmt.Fprintf(p.out, "Backed up %s to %s\n", path, backupPath)
	}
	return nil
}

func writeLexicon(lex *lexicon.Lexicon, path string) error {
	switch {
	case lexicon.IsYAMLPath(path):
		return lex.SaveYAML(path)
	case lexicon.IsStorePath(path):
		store, err := lexicon.OpenStore(path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Save(lex)
	default:
		return fmt.Errorf("unsupported lexicon format: %s (use .yaml, .yml, .db, .sqlite or .sqlite3)", path)
	}
}

// isFallback reports whether candidates is the identity entry a lookup miss
// inserts, which a suggestion may replace
func isFallback(word string, candidates []lexicon.Candidate) bool {
	return len(candidates) == 1 && candidates[0].Target == word && candidates[0].Probability == 1.0
}

func formatCandidates(candidates []lexicon.Candidate) string {
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = fmt.Sprintf("%s (%.2f)", c.Target, c.Probability)
	}
	return strings.Join(parts, ", ")
}
