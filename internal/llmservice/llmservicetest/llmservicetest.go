// Package llmservicetest provides a scripted chat model for tests.
package llmservicetest

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/llmservice"
)

// Model streams Chunks through the streaming callback and then returns Err,
// if set. When Gate is not nil generation waits for it to be closed first;
// when Hold is not nil it waits for Hold after the last chunk.
type Model struct {
	Chunks []string
	Err    error
	Gate   chan struct{}
	Hold   chan struct{}

	mu      sync.Mutex
	prompts []string
}

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	var prompt strings.Builder
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt.WriteString(text.Text)
			}
		}
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt.String())
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var content strings.Builder
	for _, c := range m.Chunks {
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		content.WriteString(c)
	}
	if m.Hold != nil {
		select {
		case <-m.Hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content.String()}}}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Prompts returns every prompt received so far.
func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// NewClient wraps m in a Client named "fake".
func NewClient(m *Model) *llmservice.Client {
	return llmservice.NewClientWithModel(m, &config.LLMConfig{Model: "fake"})
}
