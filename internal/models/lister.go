package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return NewListerWithConfig(openai.DefaultConfig(apiKey), apiKey)
}

// NewListerWithConfig creates a lister with a custom client configuration
func NewListerWithConfig(config openai.ClientConfig, apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(config),
	}
}

// ChatModels returns the sorted IDs of models usable for suggestions
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .beamtrans.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var chatModels []string
	for _, model := range models.Models {
		if isChatModel(model.ID) {
			chatModels = append(chatModels, model.ID)
		}
	}

	sort.Strings(chatModels)
	return chatModels, nil
}

// ListAvailableModels prints the chat models to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	chatModels, err := l.ChatModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Chat models usable for lexicon suggestions:")
	if len(chatModels) == 0 {
		fmt.Fprintln(w, "  No chat models found")
		return nil
	}
	for _, model := range chatModels {
		fmt.Fprintf(w, "  %s\n", model)
	}
	return nil
}

// isChatModel keeps gpt and chat models, dropping audio, realtime and
// search variants which do not answer plain chat completions
func isChatModel(id string) bool {
	if !strings.Contains(id, "gpt") && !strings.Contains(id, "chat") {
		return false
	}
	for _, skip := range []string{"audio", "realtime", "tts", "transcribe", "search", "image"} {
		if strings.Contains(id, skip) {
			return false
		}
	}
	return true
}
