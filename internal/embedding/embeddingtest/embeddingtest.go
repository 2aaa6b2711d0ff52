// Package embeddingtest provides deterministic embedders for tests.
package embeddingtest

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/tmc/langchaingo/embeddings"
)

// ErrUnavailable is returned by a Failing embedder.
var ErrUnavailable = errors.New("connection refused")

// Vocabulary embeds text as a bag of words over a fixed vocabulary. Dimension 0
// is a constant bias so no vector is ever zero.
type Vocabulary struct {
	*embeddings.EmbedderImpl
	index map[string]int
	calls atomic.Int64
	fail  atomic.Bool
}

func NewVocabulary(words ...string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int, len(words))}
	for _, w := range words {
		w = strings.ToLower(w)
		if _, ok := v.index[w]; !ok {
			v.index[w] = len(v.index) + 1
		}
	}
	impl, _ := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(v.create))
	v.EmbedderImpl = impl
	return v
}

// Calls reports how many times the backend was hit.
func (v *Vocabulary) Calls() int64 { return v.calls.Load() }

// SetFailing makes every following call fail with ErrUnavailable.
func (v *Vocabulary) SetFailing(fail bool) { v.fail.Store(fail) }

func (v *Vocabulary) create(_ context.Context, texts []string) ([][]float32, error) {
	v.calls.Add(1)
	if v.fail.Load() {
		return nil, ErrUnavailable
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(v.index)+1)
		vec[0] = 1
		for _, tok := range Tokenize(text) {
			if pos, ok := v.index[tok]; ok {
				vec[pos]++
			}
		}
		out[i] = vec
	}
	return out, nil
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Failing returns an embedder whose backend is always unreachable.
func Failing() *embeddings.EmbedderImpl {
	impl, _ := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, ErrUnavailable
	}))
	return impl
}
