package processor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/beamtrans/internal/batch"
	"codeberg.org/snonux/beamtrans/internal/cli"
	"codeberg.org/snonux/beamtrans/internal/decoder"
	"codeberg.org/snonux/beamtrans/internal/lexicon"
	"codeberg.org/snonux/beamtrans/internal/suggest"
	"codeberg.org/snonux/beamtrans/internal/translation"
)

// DefaultInputFile is read by the "translate from file" interactive choice
const DefaultInputFile = "input.txt"

// Processor handles the main translation logic
type Processor struct {
	flags       *cli.Flags
	lexiconPath string
	translator  *translation.Translator

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	// newProvider creates suggestion providers; replaced in tests
	newProvider func(name, apiKey, model string) (suggest.Provider, error)
}

// NewProcessor loads the configured lexicon and creates a processor reading
// from in and printing to out and errOut
func NewProcessor(flags *cli.Flags, in io.Reader, out, errOut io.Writer) (*Processor, error) {
	p := &Processor{
		flags:       flags,
		lexiconPath: resolveLexiconPath(flags.LexiconPath),
		in:          bufio.NewReader(in),
		out:         out,
		errOut:      errOut,
		newProvider: suggest.NewProvider,
	}

	lex, err := lexicon.Load(p.lexiconPath)
	if err != nil {
		return nil, err
	}

	var opts []decoder.Option
	if flags.Trace {
		opts = append(opts, decoder.WithStepObserver(p.printStep))
	}

	p.translator, err = translation.NewTranslator(lex, flags.BeamWidth, flags.Normalize, opts...)
	if err != nil {
		return nil, err
	}

	p.debugf("lexicon %q with %d entries, beam width %d", p.lexiconDisplayName(), lex.Len(), flags.BeamWidth)
	return p, nil
}

// resolveLexiconPath falls back to the default SQLite lexicon when it exists
// and the built-in dictionary otherwise
func resolveLexiconPath(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(cli.DefaultLexiconPath()); err == nil {
		return cli.DefaultLexiconPath()
	}
	return ""
}

// Translator returns the underlying translator
func (p *Processor) Translator() *translation.Translator {
	return p.translator
}

// PrintBanner prints the program banner unless disabled
func (p *Processor) PrintBanner() {
	if p.flags.NoBanner {
		return
	}
	fmt.Fprintln(p.out, "==============================")
	fmt.Fprintln(p.out, " BEAM SEARCH TRANSLATION")
	fmt.Fprintln(p.out, "==============================")
}

// ProcessArgs translates the command line arguments as one sentence
func (p *Processor) ProcessArgs(args []string) error {
	p.PrintBanner()
	return p.ProcessSentence(strings.Join(args, " "))
}

// ProcessSentence translates one sentence, prints the ranked result and
// saves it when an output directory is configured
func (p *Processor) ProcessSentence(sentence string) error {
	fmt.Fprintf(p.out, "\nSource: %s\n", sentence)

	result, err := p.translator.TranslateSentence(sentence)
	if err != nil {
		return err
	}
	p.debugf("tokens %q", result.Tokens)

	p.printResult(result)

	if p.flags.OutputDir != "" {
		if err := os.MkdirAll(p.flags.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path, err := translation.SaveTranslation(p.flags.OutputDir, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.out, "  Saved to %s\n", path)
	}

	return nil
}

// ProcessBatch translates every sentence of the configured batch file
func (p *Processor) ProcessBatch() error {
	p.PrintBanner()
	return p.processFile(p.flags.BatchFile)
}

func (p *Processor) processFile(filename string) error {
	sentences, err := batch.ReadSentenceFile(filename)
	if err != nil {
		return err
	}

	// Track statistics
	processedCount := 0
	errorCount := 0

	for _, sentence := range sentences {
		if err := p.ProcessSentence(sentence); err != nil {
			fmt.Fprintf(p.errOut, "Error translating '%s': %v\n", sentence, err)
			errorCount++
			// Continue with next sentence
		} else {
			processedCount++
		}
	}

	if len(sentences) > 1 {
		fmt.Fprintf(p.out, "\n=== Batch Translation Summary ===\n")
		fmt.Fprintf(p.out, "Total sentences: %d\n", len(sentences))
		fmt.Fprintf(p.out, "Translated: %d\n", processedCount)
		if errorCount > 0 {
			fmt.Fprintf(p.out, "Errors: %d\n", errorCount)
		}
		fmt.Fprintf(p.out, "=================================\n")
	}

	if processedCount == 0 && errorCount > 0 {
		return fmt.Errorf("no sentence of %s could be translated", filename)
	}
	return nil
}

// RunInteractive asks whether to translate a typed sentence or the
// sentences of input.txt
func (p *Processor) RunInteractive() error {
	p.PrintBanner()

	fmt.Fprintln(p.out, "Select mode:")
	fmt.Fprintln(p.out, "1. Translate from keyboard")
	fmt.Fprintf(p.out, "2. Translate from file (%s)\n", DefaultInputFile)
	fmt.Fprint(p.out, "Enter choice (1/2): ")

	choice, err := p.readLine()
	if err != nil && choice == "" {
		return fmt.Errorf("failed to read choice: %w", err)
	}

	switch strings.TrimSpace(choice) {
	case "1":
		fmt.Fprint(p.out, "Enter a sentence: ")
		sentence, err := p.readLine()
		if err != nil && sentence == "" && err != io.EOF {
			return fmt.Errorf("failed to read sentence: %w", err)
		}
		return p.ProcessSentence(sentence)
	case "2":
		return p.processFile(DefaultInputFile)
	default:
		return fmt.Errorf("invalid choice %q", strings.TrimSpace(choice))
	}
}

// RunPrompt translates every line read from input until EOF
func (p *Processor) RunPrompt() error {
	p.PrintBanner()

	for {
		fmt.Fprint(p.out, "> ")
		line, err := p.readLine()
		if line = strings.TrimSpace(line); line != "" {
			if perr := p.ProcessSentence(line); perr != nil {
				fmt.Fprintf(p.errOut, "Error translating '%s': %v\n", line, perr)
			}
		}
		if err == io.EOF {
			fmt.Fprintln(p.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// readLine returns the next line without its line ending. At EOF it returns
// the remaining text together with io.EOF.
func (p *Processor) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (p *Processor) printResult(result *translation.Result) {
	hypotheses := result.Hypotheses
	if p.flags.Top > 0 && len(hypotheses) > p.flags.Top {
		hypotheses = hypotheses[:p.flags.Top]
	}

	fmt.Fprintln(p.out, "==> Beam search results:")
	for i, h := range hypotheses {
		fmt.Fprintf(p.out, " [%d] %s (Score: %.4f)\n", i+1, strings.Join(h.Translation, " "), h.Probability)
	}
	fmt.Fprintf(p.out, "==> Best translation: %s\n", result.Best())
}

func (p *Processor) printStep(step int, beam []decoder.Hypothesis) {
	fmt.Fprintf(p.out, "  step %d: %d hypotheses\n", step+1, len(beam))
	for _, h := range beam {
		fmt.Fprintf(p.out, "    %.4f %s\n", h.Probability, strings.Join(h.Translation, " "))
	}
}

func (p *Processor) lexiconDisplayName() string {
	if p.lexiconPath == "" {
		return "built-in"
	}
	return p.lexiconPath
}

func (p *Processor) debugf(format string, args ...interface{}) {
	if os.Getenv("BEAMTRANS_DEBUG") == "" {
		return
	}
	fmt.Fprintf(p.errOut, "  [DEBUG] "+format+"\n", args...)
}
