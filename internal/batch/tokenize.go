package batch

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tokenize splits sentence on whitespace. With normalize set the sentence is
// first NFKC-normalized, so full-width letters and compatibility forms match
// their plain lexicon keys. Case is preserved either way.
func Tokenize(sentence string, normalize bool) []string {
	if normalize {
		sentence = norm.NFKC.String(sentence)
	}
	return strings.Fields(sentence)
}
