// Package suggest proposes lexicon entries for words the dictionary does not
// know yet. It asks a language model (OpenAI or Gemini) for weighted
// translations and parses the reply into validated candidates.
package suggest
