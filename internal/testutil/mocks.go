package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider mocks a suggestion provider. Replies and errors are keyed by
// the word the prompt asks about.
type MockProvider struct {
	ProviderName string
	Replies      map[string]string
	Errors       map[string]error

	mu    sync.Mutex
	Calls []string
}

// Name returns the configured provider name, "mock" by default
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Complete returns the reply whose key appears in prompt
func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, prompt)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	for key, err := range m.Errors {
		if containsKey(prompt, key) {
			return "", err
		}
	}
	for key, reply := range m.Replies {
		if containsKey(prompt, key) {
			return reply, nil
		}
	}

	return "", fmt.Errorf("mock provider: no reply for prompt")
}

// CallCount returns how often Complete was called
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// containsKey matches the word as it is quoted in suggestion prompts
func containsKey(prompt, key string) bool {
	return key != "" && strings.Contains(prompt, "'"+key+"'")
}
