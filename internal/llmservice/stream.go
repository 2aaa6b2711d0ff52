package llmservice

import (
	"context"
	"io"
)

// Stream yields the reply of one inference, fragment by fragment.
type Stream interface {
	// Next returns the next non-empty fragment. It returns io.EOF once the
	// reply is complete and a *models.InferenceError when generation failed.
	Next() (string, error)
	// Close stops generation and waits for the producer to exit. Safe to call
	// more than once and after the stream is drained.
	Close()
}

type stream struct {
	chunks chan string
	done   chan struct{}
	cancel context.CancelFunc
	err    error // written before done is closed
}

func (s *stream) send(ctx context.Context, chunk string) error {
	select {
	case s.chunks <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stream) Next() (string, error) {
	select {
	case chunk := <-s.chunks:
		return chunk, nil
	case <-s.done:
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
}

func (s *stream) Close() {
	s.cancel()
	<-s.done
}
