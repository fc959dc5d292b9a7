package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadSentenceFile reads sentences from a file, one per line. Blank lines
// are skipped and surrounding whitespace is trimmed. An empty or missing
// file is an error.
func ReadSentenceFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	defer file.Close()

	sentences, err := ReadSentences(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	if len(sentences) == 0 {
		return nil, fmt.Errorf("batch file %s contains no sentences", filename)
	}

	return sentences, nil
}

// ReadSentences reads non-blank lines from r. Both \n and \r\n line endings
// are accepted.
func ReadSentences(r io.Reader) ([]string, error) {
	var sentences []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			sentences = append(sentences, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return sentences, nil
}
