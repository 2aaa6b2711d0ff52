package session

import "oraculo-educacao/internal/models"

type State int

const (
	Idle State = iota
	AwaitingRetrieval
	AwaitingInference
	Streaming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingRetrieval:
		return "awaiting_retrieval"
	case AwaitingInference:
		return "awaiting_inference"
	case Streaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Busy reports whether a turn is running.
func (s State) Busy() bool { return s != Idle }

type EventKind int

const (
	Submitted EventKind = iota
	Retrieved
	ChunkReceived
	StreamEnded
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Submitted:
		return "submitted"
	case Retrieved:
		return "retrieved"
	case ChunkReceived:
		return "chunk"
	case StreamEnded:
		return "done"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one step of a turn, as seen by a UI.
type Event struct {
	Kind  EventKind
	State State // state after the event

	// Message is the user message on Submitted and the assistant reply on StreamEnded.
	Message *models.ChatMessage
	Sources []models.Record
	// Delta is the new fragment; Content is everything received so far.
	Delta   string
	Content string
	Err     error
}

type Renderer interface {
	Render(Event)
}

type RendererFunc func(Event)

func (f RendererFunc) Render(e Event) { f(e) }
