package gtranslate

import (
	"context"
	"sync"
)

// MockClient implements Translator for testing
type MockClient struct {
	mu sync.Mutex

	// TranslateFunc allows customizing the behavior
	TranslateFunc func(ctx context.Context, text, source, target string) (string, error)

	// Tracking for assertions
	Calls []MockCall
}

// MockCall records one Translate invocation
type MockCall struct {
	Text   string
	Source string
	Target string
}

// NewMockClient creates a mock that tags text with the target language,
// e.g. "[fr] Hello"
func NewMockClient() *MockClient {
	return &MockClient{Calls: make([]MockCall, 0)}
}

// Translate implements Translator
func (m *MockClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Text: text, Source: source, Target: target})
	m.mu.Unlock()

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, source, target)
	}
	return "[" + target + "] " + text, nil
}

// CallCount returns the number of Translate calls made
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
