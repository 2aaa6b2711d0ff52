package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"oraculo-educacao/internal/models"
	"oraculo-educacao/internal/session"
)

const (
	headerHeight = 2
	statusHeight = 1
	inputHeight  = 3
	footerHeight = 1
)

type (
	// eventMsg carries one session event into the update loop.
	eventMsg session.Event
	// turnDoneMsg is the last message of a turn.
	turnDoneMsg struct{ err error }
)

// Model is the terminal chat. One turn runs at a time; input is disabled
// until it ends.
type Model struct {
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
	styles    styles

	ctx     context.Context
	session *session.Session

	events  chan tea.Msg
	busy    bool
	state   session.State
	partial string

	width  int
	height int
	ready  bool
}

func New(ctx context.Context, s *session.Session) Model {
	st := defaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Faça sua pergunta (Enter envia, Esc sai)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Spinner

	return Model{
		textinput: ti,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
		renderer:  newRenderer(80),
		styles:    st,
		ctx:       ctx,
		session:   s,
	}
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			return m.submit()
		}
		if !m.busy {
			var cmd tea.Cmd
			m.textinput, cmd = m.textinput.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vpHeight := max(msg.Height-headerHeight-statusHeight-inputHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.textinput.Width = max(msg.Width-6, 10)
		m.renderer = newRenderer(max(msg.Width-4, 20))
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		e := session.Event(msg)
		m.state = e.State
		switch e.Kind {
		case session.ChunkReceived:
			m.partial = e.Content
		case session.StreamEnded, session.Failed:
			m.partial = ""
		}
		m.refresh()
		return m, waitForEvent(m.events)

	case turnDoneMsg:
		m.busy = false
		m.events = nil
		m.partial = ""
		m.state = session.Idle
		m.textinput.Focus()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit starts a turn in the background. Its events come back through
// waitForEvent, ending with turnDoneMsg.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.textinput.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.textinput.Reset()
	m.textinput.Blur()
	m.busy = true
	m.state = session.AwaitingRetrieval
	m.events = make(chan tea.Msg, 16)

	go func(ctx context.Context, events chan<- tea.Msg) {
		renderer := session.RendererFunc(func(e session.Event) {
			select {
			case events <- eventMsg(e):
			case <-ctx.Done():
			}
		})
		err := m.session.Submit(ctx, text, renderer)
		select {
		case events <- turnDoneMsg{err: err}:
		case <-ctx.Done():
		}
		close(events)
	}(m.ctx, m.events)

	m.refresh()
	return m, tea.Batch(waitForEvent(m.events), m.spinner.Tick)
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, turn := range m.session.Transcript() {
		sb.WriteString(m.styles.User.Render("Você") + "\n")
		sb.WriteString(turn.User.Content)
		sb.WriteString("\n")

		switch {
		case turn.Assistant != nil:
			sb.WriteString(m.styles.Assistant.Render(models.AppTitle) + "\n")
			sb.WriteString(m.renderMarkdown(turn.Assistant.Content))
		case turn.Error != "":
			sb.WriteString(m.styles.Error.Render("Erro: "+turn.Error) + "\n")
		case m.busy && m.partial != "":
			sb.WriteString(m.styles.Assistant.Render(models.AppTitle) + "\n")
			sb.WriteString(m.partial + models.StreamCursor + "\n")
		}
	}
	return sb.String()
}

// renderMarkdown falls back to the raw text when glamour fails.
func (m Model) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content + "\n"
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content + "\n"
}

func (m Model) View() string {
	if !m.ready {
		return "Inicializando..."
	}

	header := m.styles.Header.Render(models.AppTitle)

	status := ""
	if m.busy && m.partial == "" {
		label := "Consultando a base de conhecimento..."
		if m.state == session.AwaitingInference {
			label = "Gerando resposta..."
		}
		status = m.spinner.View() + " " + m.styles.Muted.Render(label)
	}

	footer := m.styles.Muted.Render("Enter envia • ↑/↓ rolam o histórico • Esc ou Ctrl+C sai")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.styles.Input.Render(m.textinput.View()),
		footer,
	)
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, s *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, s), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
