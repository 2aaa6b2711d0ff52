package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/models"
)

// ErrEmptyResponse is reported when the model finishes without producing text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client sends prompts to a chat model and streams the reply back.
type Client struct {
	model       llms.Model
	modelName   string
	temperature float64
	timeout     time.Duration
}

// NewModel creates the langchaingo model for the configured provider
func NewModel(cfg *config.LLMConfig) (llms.Model, error) {
	log.Debug().Interface("llmConfig", map[string]any{
		"provider": cfg.Provider,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Msg("Creating chat model")

	switch cfg.Provider {
	case config.ProviderOllama, "":
		opts := []ollama.Option{
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		}
		if cfg.KeepAlive != "" {
			opts = append(opts, ollama.WithKeepAlive(cfg.KeepAlive))
		}
		if cfg.NumCtx > 0 {
			opts = append(opts, ollama.WithRunnerNumCtx(cfg.NumCtx))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama client: %w", err)
		}
		return llm, nil
	case config.ProviderOpenAI:
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing openai client: %w", err)
		}
		return llm, nil
	default:
		return nil, &models.ConfigurationError{Key: "llm.provider", Msg: "unknown provider " + cfg.Provider}
	}
}

// NewClient builds the model from cfg and wraps it.
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientWithModel(model, cfg), nil
}

// NewClientWithModel wraps an existing model. Only the generation options of
// cfg are used.
func NewClientWithModel(model llms.Model, cfg *config.LLMConfig) *Client {
	return &Client{
		model:       model,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}
}

// Infer sends prompt as a single human message. Generation runs in the
// background until the returned Stream is drained or closed.
func (c *Client) Infer(ctx context.Context, prompt string) (Stream, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &models.InferenceError{Model: c.modelName, Err: errors.New("empty prompt")}
	}

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	s := &stream{
		chunks: make(chan string),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go c.generate(ctx, s, prompt)
	return s, nil
}

func (c *Client) generate(ctx context.Context, s *stream, prompt string) {
	defer close(s.done)
	defer s.cancel()

	started := time.Now()
	streamed := false
	opts := []llms.CallOption{
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			return s.send(ctx, string(chunk))
		}),
	}
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err == nil && !streamed {
		err = c.deliverFinal(ctx, s, resp)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		s.err = &models.InferenceError{Model: c.modelName, Err: err}
		log.Error().Err(err).Str("model", c.modelName).Msg("Inference failed")
		return
	}
	log.Debug().Str("model", c.modelName).Dur("elapsed", time.Since(started)).Msg("Inference finished")
}

// deliverFinal handles backends that ignore the streaming callback.
func (c *Client) deliverFinal(ctx context.Context, s *stream, resp *llms.ContentResponse) error {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil || resp.Choices[0].Content == "" {
		return ErrEmptyResponse
	}
	return s.send(ctx, resp.Choices[0].Content)
}
