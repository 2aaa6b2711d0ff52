package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"oraculo-educacao/internal/models"
	"oraculo-educacao/internal/session"
)

const sessionCookie = "oraculo_session"

//go:embed templates/*.html
var templatesFS embed.FS

type ChatHandler struct {
	store *session.Store
	ttl   time.Duration
	page  *template.Template
	md    goldmark.Markdown
}

func NewChatHandler(store *session.Store, ttl time.Duration) (*ChatHandler, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &ChatHandler{store: store, ttl: ttl, page: page, md: newMarkdown()}, nil
}

type messageRequest struct {
	Content string `json:"content"`
}

// turnView is a turn as shown by the page and returned by the API.
type turnView struct {
	User      models.ChatMessage  `json:"user"`
	Assistant *models.ChatMessage `json:"assistant,omitempty"`
	HTML      template.HTML       `json:"html,omitempty"`
	Error     string              `json:"error,omitempty"`
	Pending   bool                `json:"pending"`
}

type pageData struct {
	Title string
	Turns []turnView
	Busy  bool
}

func (h *ChatHandler) Index(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	data := pageData{Title: models.AppTitle, Turns: h.turns(s), Busy: s.State().Busy()}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.page.Execute(c.Writer, data); err != nil {
		log.Error().Err(err).Msg("Rendering chat page")
	}
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title": models.AppTitle,
		"state": s.State().String(),
		"turns": h.turns(s),
	})
}

// PostMessage runs one turn and streams its events as SSE. Errors found
// before the turn starts are plain JSON responses.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": session.ErrEmptyInput.Error()})
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}

	streaming := false
	renderer := session.RendererFunc(func(e session.Event) {
		if !streaming {
			streaming = true
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
		}
		h.writeEvent(c, e)
		c.Writer.Flush()
	})

	err := s.Submit(c.Request.Context(), req.Content, renderer)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case !streaming:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *ChatHandler) writeEvent(c *gin.Context, e session.Event) {
	switch e.Kind {
	case session.Submitted, session.Retrieved:
		c.SSEvent("state", gin.H{"state": e.State.String(), "sources": len(e.Sources)})
	case session.ChunkReceived:
		c.SSEvent("chunk", gin.H{"delta": e.Delta, "content": e.Content})
	case session.StreamEnded:
		html, err := renderMarkdown(h.md, e.Content)
		if err != nil {
			log.Warn().Err(err).Msg("Rendering markdown")
			html = template.HTML(template.HTMLEscapeString(e.Content))
		}
		c.SSEvent("done", gin.H{"message": e.Message, "html": html})
	case session.Failed:
		c.SSEvent("error", gin.H{"message": e.Err.Error()})
	}
}

// session resolves the caller's session from the cookie, starting a new one
// when the cookie is missing or stale.
func (h *ChatHandler) session(c *gin.Context) (*session.Session, bool) {
	id, _ := c.Cookie(sessionCookie)
	s, err := h.store.GetOrCreate(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if s.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID, int(h.ttl.Seconds()), "/", "", false, true)
	}
	return s, true
}

func (h *ChatHandler) turns(s *session.Session) []turnView {
	transcript := s.Transcript()
	views := make([]turnView, len(transcript))
	for i, t := range transcript {
		views[i] = turnView{User: t.User, Assistant: t.Assistant, Error: t.Error, Pending: t.Pending()}
		if t.Assistant != nil {
			html, err := renderMarkdown(h.md, t.Assistant.Content)
			if err != nil {
				html = template.HTML(template.HTMLEscapeString(t.Assistant.Content))
			}
			views[i].HTML = html
		}
	}
	return views
}
