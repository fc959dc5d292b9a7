package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SampleLexiconYAML is a small lexicon used by tests that need a file on disk
const SampleLexiconYAML = `good:
  - target: tốt
    probability: 0.8
  - target: giỏi
    probability: 0.2
morning:
  - target: buổi sáng
    probability: 0.9
  - target: sáng
    probability: 0.1
`

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// CreateSentenceFile writes one sentence per line into dir/name
func CreateSentenceFile(t *testing.T, dir, name string, sentences ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	CreateTestFile(t, path, []byte(strings.Join(sentences, "\n")+"\n"))
	return path
}

// CreateLexiconFile writes SampleLexiconYAML into dir and returns its path
func CreateLexiconFile(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "lexicon.yaml")
	CreateTestFile(t, path, []byte(SampleLexiconYAML))
	return path
}

// SetTestHome points HOME at a temporary directory so default config and
// lexicon paths never touch the real home directory
func SetTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}

// AssertContains checks if output contains every substring
func AssertContains(t *testing.T, output string, substrings ...string) {
	t.Helper()

	for _, s := range substrings {
		if !strings.Contains(output, s) {
			t.Errorf("Output does not contain %q:\n%s", s, output)
		}
	}
}
