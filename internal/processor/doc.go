// Package processor contains the application logic of beamtrans. It loads
// the lexicon, runs translations in single, batch and interactive modes,
// prints ranked results and maintains lexicon files, including LLM-backed
// suggestions for unknown words. It is the coordinator between all other
// components.
package processor
