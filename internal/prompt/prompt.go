package prompt

import (
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/prompts"

	"oraculo-educacao/internal/models"
)

const (
	varContext  = "context"
	varQuestion = "question"
)

// Composer fills the RAG template with retrieved records and the user's question.
type Composer struct {
	template prompts.PromptTemplate
}

// NewComposer loads the template from promptFile, or uses the built-in one when
// promptFile is empty. The template is rendered once with placeholder values
// so a broken file is reported at startup.
func NewComposer(promptFile string) (*Composer, error) {
	text := models.RAGPromptTemplate
	if promptFile != "" {
		data, err := os.ReadFile(promptFile)
		if err != nil {
			return nil, &models.ConfigurationError{Key: "rag.prompt_file", Msg: "cannot read " + promptFile, Err: err}
		}
		text = string(data)
		log.Debug().Str("file", promptFile).Msg("Using custom prompt template")
	}

	tmpl := prompts.NewPromptTemplate(text, []string{varContext, varQuestion})
	if err := prompts.CheckValidTemplate(tmpl.Template, tmpl.TemplateFormat, tmpl.InputVariables); err != nil {
		return nil, &models.ConfigurationError{Key: "rag.prompt_file", Msg: "invalid template", Err: err}
	}
	if !strings.Contains(text, "."+varQuestion) {
		log.Warn().Msg("Prompt template does not reference the question")
	}
	return &Composer{template: tmpl}, nil
}

// Compose renders the prompt. Both slots are always supplied, so an empty
// record list yields an empty context.
func (c *Composer) Compose(records []models.Record, question string) (string, error) {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}
	return c.template.Format(map[string]any{
		varContext:  strings.Join(texts, models.ContextSeparator),
		varQuestion: question,
	})
}
