// Package batch reads source sentences from files and interactive input and
// splits them into tokens for the decoder.
package batch
