// Package translation turns source sentences into ranked translations by
// tokenizing them and running the beam decoder against a lexicon. It includes
// a per-sentence result cache for batch operations and file persistence for
// translated sentences.
package translation
