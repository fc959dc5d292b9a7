// Package models lists the OpenAI chat models that can serve as lexicon
// suggestion providers for the current API key.
package models
