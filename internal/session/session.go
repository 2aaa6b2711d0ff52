package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"oraculo-educacao/internal/llmservice"
	"oraculo-educacao/internal/models"
)

var (
	ErrBusy       = errors.New("a reply is still being generated")
	ErrEmptyInput = errors.New("message is empty")
)

// Pipeline is the retrieval, composition and inference chain a session drives.
type Pipeline interface {
	Retrieve(ctx context.Context, question string) ([]models.Record, error)
	Compose(records []models.Record, question string) (string, error)
	Infer(ctx context.Context, prompt string) (llmservice.Stream, error)
}

// Session holds one conversation. Submissions are processed one at a time.
type Session struct {
	ID string

	pipeline Pipeline
	now      func() time.Time

	mu         sync.Mutex
	state      State
	history    []models.ChatMessage
	failures   map[int]string // user message index -> error shown in place of the reply
	lastActive time.Time
}

func New(id string, pipeline Pipeline) *Session {
	s := &Session{
		ID:       id,
		pipeline: pipeline,
		now:      time.Now,
		failures: make(map[int]string),
	}
	s.lastActive = s.now()
	return s
}

// Submit runs one turn. Events are delivered to r in order and on the calling
// goroutine. It returns ErrEmptyInput for blank text, ErrBusy while another
// turn is running, and otherwise the error that ended the turn, if any.
func (s *Session) Submit(ctx context.Context, text string, r Renderer) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}
	if r == nil {
		r = RendererFunc(func(Event) {})
	}

	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return ErrBusy
	}
	user := models.ChatMessage{Role: models.RoleUser, Content: text, CreatedAt: s.now()}
	s.history = append(s.history, user)
	turn := len(s.history) - 1
	s.state = AwaitingRetrieval
	s.lastActive = user.CreatedAt
	s.mu.Unlock()

	logger := log.With().Str("session", s.ID).Int("turn", turn).Logger()
	logger.Debug().Msg("Question submitted")
	r.Render(Event{Kind: Submitted, State: AwaitingRetrieval, Message: &user})

	records, err := s.pipeline.Retrieve(ctx, text)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return s.fail(r, turn, err)
	}
	s.setState(AwaitingInference)
	logger.Debug().Int("sources", len(records)).Msg("Context retrieved")
	r.Render(Event{Kind: Retrieved, State: AwaitingInference, Sources: records})

	prompt, err := s.pipeline.Compose(records, text)
	if err != nil {
		return s.fail(r, turn, err)
	}
	stream, err := s.pipeline.Infer(ctx, prompt)
	if err != nil {
		return s.fail(r, turn, err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.fail(r, turn, err)
		}
		if reply.Len() == 0 {
			s.setState(Streaming)
		}
		reply.WriteString(chunk)
		r.Render(Event{Kind: ChunkReceived, State: Streaming, Delta: chunk, Content: reply.String()})
	}

	assistant := models.ChatMessage{Role: models.RoleAssistant, Content: reply.String(), CreatedAt: s.now()}
	s.mu.Lock()
	s.history = append(s.history, assistant)
	s.state = Idle
	s.lastActive = assistant.CreatedAt
	s.mu.Unlock()

	logger.Debug().Int("chars", len(assistant.Content)).Msg("Reply completed")
	r.Render(Event{Kind: StreamEnded, State: Idle, Content: assistant.Content, Message: &assistant})
	return nil
}

func (s *Session) fail(r Renderer, turn int, err error) error {
	s.mu.Lock()
	s.failures[turn] = err.Error()
	s.state = Idle
	s.lastActive = s.now()
	s.mu.Unlock()

	log.Error().Err(err).Str("session", s.ID).Int("turn", turn).Msg("Turn failed")
	r.Render(Event{Kind: Failed, State: Idle, Err: err})
	return err
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the messages in append order.
func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.history...)
}

// Transcript groups the history into turns. A failed turn carries its error
// instead of a reply; the running turn has neither.
func (s *Session) Transcript() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	var turns []models.Turn
	for i, msg := range s.history {
		switch msg.Role {
		case models.RoleUser:
			turns = append(turns, models.Turn{User: msg, Error: s.failures[i]})
		case models.RoleAssistant:
			if n := len(turns); n > 0 {
				reply := msg
				turns[n-1].Assistant = &reply
			}
		}
	}
	return turns
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, s.state == Idle
}
