// Package lexicon provides the word-level translation dictionary used by the
// beam decoder. A lexicon maps a source token to an ordered list of weighted
// target candidates and falls back to copying unknown tokens unchanged. It
// can be loaded from YAML files or SQLite databases.
package lexicon
