package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"codeberg.org/snonux/beamtrans/internal/cli"
	"codeberg.org/snonux/beamtrans/internal/decoder"
	"codeberg.org/snonux/beamtrans/internal/lexicon"
	"codeberg.org/snonux/beamtrans/internal/suggest"
	"codeberg.org/snonux/beamtrans/internal/testutil"
)

type testProcessor struct {
	*Processor
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestProcessor(t *testing.T, flags *cli.Flags, input string) *testProcessor {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	p, err := NewProcessor(flags, strings.NewReader(input), out, errOut)
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	return &testProcessor{Processor: p, out: out, errOut: errOut}
}

func testFlags(t *testing.T) *cli.Flags {
	t.Helper()
	testutil.SetTestHome(t)

	flags := cli.NewFlags()
	flags.NoBanner = true
	return flags
}

func TestNewProcessor_BuiltInLexicon(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")

	if p.lexiconPath != "" {
		t.Errorf("Expected built-in lexicon, got %s", p.lexiconPath)
	}
	if p.Translator().BeamWidth() != decoder.DefaultBeamWidth {
		t.Errorf("Expected default beam width, got %d", p.Translator().BeamWidth())
	}
}

func TestNewProcessor_InvalidBeamWidth(t *testing.T) {
	flags := testFlags(t)
	flags.BeamWidth = 0

	_, err := NewProcessor(flags, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	if !errors.Is(err, decoder.ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNewProcessor_LexiconFile(t *testing.T) {
	flags := testFlags(t)
	flags.LexiconPath = testutil.CreateLexiconFile(t, t.TempDir())

	p := newTestProcessor(t, flags, "")
	if err := p.ProcessSentence("good morning"); err != nil {
		t.Fatalf("ProcessSentence failed: %v", err)
	}
	testutil.AssertContains(t, p.out.String(), "==> Best translation: tốt buổi sáng")
}

func TestNewProcessor_MissingLexicon(t *testing.T) {
	for _, name := range []string{"missing.yaml", "missing.db"} {
		t.Run(name, func(t *testing.T) {
			flags := testFlags(t)
			flags.LexiconPath = filepath.Join(t.TempDir(), name)

			if _, err := NewProcessor(flags, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
				t.Error("Expected error for missing lexicon file")
			}
			testutil.AssertFileNotExists(t, flags.LexiconPath)
		})
	}
}

func TestNewProcessor_UsesDefaultStore(t *testing.T) {
	flags := testFlags(t)

	path := cli.DefaultLexiconPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	store, err := lexicon.OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	if err := store.Put("water", []lexicon.Candidate{{Target: "nuoc", Probability: 0.9}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	store.Close()

	p := newTestProcessor(t, flags, "")
	if p.lexiconPath != path {
		t.Errorf("Expected default store %s, got %s", path, p.lexiconPath)
	}
	if _, ok := p.Translator().Lexicon().Entry("water"); !ok {
		t.Error("Expected entry from default store")
	}
}

func TestProcessSentence(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")

	if err := p.ProcessSentence("good morning my friend"); err != nil {
		t.Fatalf("ProcessSentence failed: %v", err)
	}

	testutil.AssertContains(t, p.out.String(),
		"Source: good morning my friend",
		"==> Beam search results:",
		" [1] tot buoi sang cua minh ban (Score: 0.1680)",
		" [4] ngon buoi sang cua minh nguoi ban (Score: 0.0180)",
		"==> Best translation: tot buoi sang cua minh ban",
	)
}

func TestProcessSentence_Top(t *testing.T) {
	flags := testFlags(t)
	flags.Top = 1
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessSentence("good friend"); err != nil {
		t.Fatalf("ProcessSentence failed: %v", err)
	}

	out := p.out.String()
	testutil.AssertContains(t, out, " [1] tot ban (Score: 0.5600)")
	if strings.Contains(out, " [2] ") {
		t.Errorf("Expected only one result line:\n%s", out)
	}
}

func TestProcessSentence_Trace(t *testing.T) {
	flags := testFlags(t)
	flags.BeamWidth = 1
	flags.Trace = true
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessSentence("i am fine"); err != nil {
		t.Fatalf("ProcessSentence failed: %v", err)
	}

	testutil.AssertContains(t, p.out.String(),
		"  step 1: 1 hypotheses\n    1.0000 toi\n",
		"  step 3: 1 hypotheses\n    1.0000 toi dang on\n",
		"==> Best translation: toi dang on",
	)
}

func TestProcessBatch_TraceRepeatedSentence(t *testing.T) {
	flags := testFlags(t)
	flags.Trace = true
	flags.BatchFile = testutil.CreateSentenceFile(t, t.TempDir(), "sentences.txt",
		"good morning", "good morning")
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessBatch(); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if n := strings.Count(p.out.String(), "  step 1: "); n != 2 {
		t.Errorf("Expected a trace for both sentences, got %d:\n%s", n, p.out.String())
	}
}

func TestProcessSentence_Empty(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")

	if err := p.ProcessSentence(""); err != nil {
		t.Fatalf("ProcessSentence failed: %v", err)
	}
	testutil.AssertContains(t, p.out.String(), " [1]  (Score: 1.0000)", "==> Best translation: \n")
}

func TestProcessSentence_SavesOutput(t *testing.T) {
	flags := testFlags(t)
	flags.OutputDir = filepath.Join(t.TempDir(), "out")
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessSentence("hello world"); err != nil {
		t.Fatalf("ProcessSentence failed: %v", err)
	}

	path := filepath.Join(flags.OutputDir, "hello_world.txt")
	testutil.AssertFileExists(t, path)
	testutil.AssertFileContains(t, path, "hello world = xin chao the gioi\n")
	testutil.AssertContains(t, p.out.String(), "Saved to "+path)
}

func TestPrintBanner(t *testing.T) {
	flags := testFlags(t)
	flags.NoBanner = false
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessArgs([]string{"hello", "world"}); err != nil {
		t.Fatalf("ProcessArgs failed: %v", err)
	}
	testutil.AssertContains(t, p.out.String(), " BEAM SEARCH TRANSLATION", "Source: hello world")
}

func TestProcessBatch(t *testing.T) {
	flags := testFlags(t)
	flags.BatchFile = testutil.CreateSentenceFile(t, t.TempDir(), "sentences.txt",
		"hello world", "", "  how are you  ")
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessBatch(); err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	testutil.AssertContains(t, p.out.String(),
		"Source: hello world",
		"Source: how are you",
		"==> Best translation: the nao dang ban",
		"=== Batch Translation Summary ===",
		"Total sentences: 2",
		"Translated: 2",
	)
	if p.errOut.Len() != 0 {
		t.Errorf("Unexpected errors: %s", p.errOut.String())
	}
}

func TestProcessBatch_MissingFile(t *testing.T) {
	flags := testFlags(t)
	flags.BatchFile = filepath.Join(t.TempDir(), "missing.txt")
	p := newTestProcessor(t, flags, "")

	if err := p.ProcessBatch(); err == nil {
		t.Error("Expected error for missing batch file")
	}
}

func TestProcessBatch_AllSentencesFail(t *testing.T) {
	dir := t.TempDir()
	flags := testFlags(t)
	flags.BatchFile = testutil.CreateSentenceFile(t, dir, "sentences.txt", "hello", "good morning")

	// A regular file where the output directory should be
	flags.OutputDir = filepath.Join(dir, "not-a-dir")
	testutil.CreateTestFile(t, flags.OutputDir, []byte("x"))

	p := newTestProcessor(t, flags, "")
	if err := p.ProcessBatch(); err == nil {
		t.Error("Expected error when no sentence could be translated")
	}
	testutil.AssertContains(t, p.out.String(), "Translated: 0", "Errors: 2")
	testutil.AssertContains(t, p.errOut.String(), "Error translating 'hello'")
}

func TestRunInteractive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		file     string
		wantErr  bool
		contains []string
	}{
		{
			name:     "keyboard",
			input:    "1\nhello world\n",
			contains: []string{"Enter a sentence: ", "==> Best translation: xin chao the gioi"},
		},
		{
			name:     "keyboard without trailing newline",
			input:    "1\ni am fine",
			contains: []string{"==> Best translation: toi dang on"},
		},
		{
			name:     "file",
			input:    "2\n",
			file:     "good morning\nmy friend\n",
			contains: []string{"Source: good morning", "Source: my friend", "Total sentences: 2"},
		},
		{
			name:    "missing input file",
			input:   "2\n",
			wantErr: true,
		},
		{
			name:    "invalid choice",
			input:   "3\n",
			wantErr: true,
		},
		{
			name:    "no input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			if tt.file != "" {
				testutil.CreateTestFile(t, filepath.Join(dir, DefaultInputFile), []byte(tt.file))
			}

			p := newTestProcessor(t, testFlags(t), tt.input)
			err := p.RunInteractive()
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunInteractive() error = %v, wantErr %v", err, tt.wantErr)
			}

			out := p.out.String()
			testutil.AssertContains(t, out, "Select mode:", "Enter choice (1/2): ")
			testutil.AssertContains(t, out, tt.contains...)
		})
	}
}

func TestRunPrompt(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "hello\n\ngood morning\nfine")

	if err := p.RunPrompt(); err != nil {
		t.Fatalf("RunPrompt failed: %v", err)
	}

	out := p.out.String()
	if n := strings.Count(out, "Source: "); n != 3 {
		t.Errorf("Expected 3 translations, got %d:\n%s", n, out)
	}
	testutil.AssertContains(t, out, "==> Best translation: on\n")
}

func TestParseCandidateSpecs(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []lexicon.Candidate
		wantErr bool
	}{
		{
			name:  "single",
			specs: []string{"nuoc:0.9"},
			want:  []lexicon.Candidate{{Target: "nuoc", Probability: 0.9}},
		},
		{
			name:  "multi word target and spaces",
			specs: []string{"nguoi ban : 0.2", "ban:0.8"},
			want: []lexicon.Candidate{
				{Target: "nguoi ban", Probability: 0.2},
				{Target: "ban", Probability: 0.8},
			},
		},
		{
			name:  "colon in target",
			specs: []string{"a:b:0.5"},
			want:  []lexicon.Candidate{{Target: "a:b", Probability: 0.5}},
		},
		{name: "missing probability", specs: []string{"nuoc"}, wantErr: true},
		{name: "empty target", specs: []string{":0.5"}, wantErr: true},
		{name: "not a number", specs: []string{"nuoc:high"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidateSpecs(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCandidateSpecs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); !tt.wantErr && diff != "" {
				t.Errorf("ParseCandidateSpecs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListLexicon(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")

	if err := p.ListLexicon([]string{"good", "zebra"}); err != nil {
		t.Fatalf("ListLexicon failed: %v", err)
	}

	testutil.AssertContains(t, p.out.String(),
		"Lexicon: built-in (12 entries)",
		"  good: tot (0.70), ngon (0.30)",
		"  zebra: (not found, copied unchanged)",
	)
}

func TestExportImportLexicon(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "export.yaml")
	if err := p.ExportLexicon(yamlPath); err != nil {
		t.Fatalf("ExportLexicon failed: %v", err)
	}
	testutil.AssertFileContains(t, yamlPath, "buoi sang")

	dbPath := filepath.Join(dir, "lexicon.db")
	if err := p.ImportLexicon(yamlPath, dbPath); err != nil {
		t.Fatalf("ImportLexicon failed: %v", err)
	}

	store, err := lexicon.OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	imported, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(lexicon.Default().Entries(), imported.Entries()); diff != "" {
		t.Errorf("Imported lexicon mismatch (-want +got):\n%s", diff)
	}

	// Exporting again backs up the previous file
	if err := p.ExportLexicon(yamlPath); err != nil {
		t.Fatalf("second ExportLexicon failed: %v", err)
	}
	testutil.AssertContains(t, p.out.String(), "Backed up "+yamlPath)

	backups, err := filepath.Glob(filepath.Join(dir, "archive", "export-*.yaml"))
	if err != nil || len(backups) != 1 {
		t.Errorf("Expected one backup, got %v (err %v)", backups, err)
	}
}

func TestExportLexicon_UnsupportedFormat(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")

	if err := p.ExportLexicon(filepath.Join(t.TempDir(), "lexicon.csv")); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestAddEntry(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")

	if err := p.AddEntry("water", []string{"nuoc:0.9", "nuoc uong:0.1"}); err != nil {
		t.Fatalf("AddEntry failed: %v", err)
	}

	path := cli.DefaultLexiconPath()
	testutil.AssertFileExists(t, path)
	testutil.AssertContains(t, p.out.String(),
		"Creating lexicon "+path,
		"Stored water: nuoc (0.90), nuoc uong (0.10)",
	)

	// The running translator sees the new entry
	result, err := p.Translator().TranslateSentence("water")
	if err != nil {
		t.Fatalf("TranslateSentence failed: %v", err)
	}
	if result.Best() != "nuoc" {
		t.Errorf("Expected nuoc, got %q", result.Best())
	}

	// A fresh processor picks up the seeded store
	fresh := newTestProcessor(t, cli.NewFlags(), "")
	if fresh.lexiconPath != path {
		t.Errorf("Expected default store, got %q", fresh.lexiconPath)
	}
	if got := fresh.Translator().Lexicon().Len(); got != lexicon.Default().Len()+1 {
		t.Errorf("Expected %d entries, got %d", lexicon.Default().Len()+1, got)
	}
}

func TestAddEntry_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
	}{
		{"probability above one", []string{"nuoc:1.5"}},
		{"malformed", []string{"nuoc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, testFlags(t), "")
			if err := p.AddEntry("water", tt.specs); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestAddEntry_RequiresStore(t *testing.T) {
	flags := testFlags(t)
	flags.LexiconPath = testutil.CreateLexiconFile(t, t.TempDir())
	p := newTestProcessor(t, flags, "")

	if err := p.AddEntry("water", []string{"nuoc:0.9"}); err == nil {
		t.Error("Expected error when the lexicon is not a SQLite store")
	}
}

func withMockProvider(p *testProcessor, mock *testutil.MockProvider) {
	p.newProvider = func(name, apiKey, model string) (suggest.Provider, error) {
		return mock, nil
	}
}

func TestSuggestWords(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")
	mock := &testutil.MockProvider{
		Replies: map[string]string{
			"water": "1. nuoc: 0.8\n2. nuoc uong: 0.2",
		},
	}
	withMockProvider(p, mock)

	if err := p.SuggestWords(context.Background(), []string{"water", "good"}); err != nil {
		t.Fatalf("SuggestWords failed: %v", err)
	}

	if mock.CallCount() != 1 {
		t.Errorf("Expected 1 provider call, got %d", mock.CallCount())
	}
	testutil.AssertContains(t, p.out.String(),
		"Skipping 'good' - already in lexicon",
		"nuoc (0.80), nuoc uong (0.20)",
		"Provider: mock",
		"Stored: 1",
		"Skipped (already known): 1",
	)

	got, ok := p.Translator().Lexicon().Entry("water")
	want := []lexicon.Candidate{{Target: "nuoc", Probability: 0.8}, {Target: "nuoc uong", Probability: 0.2}}
	if !ok {
		t.Fatal("Expected water in lexicon")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stored candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestSuggestWords_ReplacesFallback(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")
	withMockProvider(p, &testutil.MockProvider{Replies: map[string]string{"water": "nuoc: 0.9"}})

	// Decoding an unknown word inserts its identity fallback
	if err := p.ProcessSentence("water"); err != nil {
		t.Fatal(err)
	}
	if err := p.SuggestWords(context.Background(), []string{"water"}); err != nil {
		t.Fatalf("SuggestWords failed: %v", err)
	}

	result, err := p.Translator().TranslateSentence("water")
	if err != nil {
		t.Fatal(err)
	}
	if result.Best() != "nuoc" {
		t.Errorf("Expected suggestion to replace fallback, got %q", result.Best())
	}
}

func TestSuggestWords_DryRun(t *testing.T) {
	flags := testFlags(t)
	flags.DryRun = true
	p := newTestProcessor(t, flags, "")
	withMockProvider(p, &testutil.MockProvider{Replies: map[string]string{"water": "nuoc: 0.9"}})

	if err := p.SuggestWords(context.Background(), []string{"water"}); err != nil {
		t.Fatalf("SuggestWords failed: %v", err)
	}

	testutil.AssertFileNotExists(t, cli.DefaultLexiconPath())
	if _, ok := p.Translator().Lexicon().Entry("water"); ok {
		t.Error("Dry run must not change the lexicon")
	}
	testutil.AssertContains(t, p.out.String(), "nuoc (0.90)", "Stored: 0")
}

func TestSuggestWords_AllFail(t *testing.T) {
	p := newTestProcessor(t, testFlags(t), "")
	withMockProvider(p, &testutil.MockProvider{
		Errors: map[string]error{"water": errors.New("rate limited")},
	})

	if err := p.SuggestWords(context.Background(), []string{"water"}); err == nil {
		t.Error("Expected error when no suggestion could be stored")
	}
	testutil.AssertContains(t, p.errOut.String(), "Error suggesting 'water'", "rate limited")
	testutil.AssertContains(t, p.out.String(), "Errors: 1")
}

func TestSuggestWords_UnknownProvider(t *testing.T) {
	flags := testFlags(t)
	flags.Provider = "llama"
	p := newTestProcessor(t, flags, "")

	if err := p.SuggestWords(context.Background(), []string{"water"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestListModels_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	p := newTestProcessor(t, testFlags(t), "")

	if err := p.ListModels(context.Background()); err == nil {
		t.Error("Expected error without API key")
	}
}
