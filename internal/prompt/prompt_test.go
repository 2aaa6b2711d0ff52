package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraculo-educacao/internal/models"
)

func TestCompose_DefaultTemplate(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)

	records := []models.Record{
		{Row: 0, Text: "texto: Escola A tem 200 alunos"},
		{Row: 1, Text: "texto: Escola B tem 150 alunos"},
	}
	out, err := c.Compose(records, "quantos alunos tem a Escola A?")
	require.NoError(t, err)

	assert.Contains(t, out, "Oráculo da Educação")
	assert.Contains(t, out, "Contexto: texto: Escola A tem 200 alunos\n---\ntexto: Escola B tem 150 alunos")
	assert.Contains(t, out, "Pergunta do cliente: quantos alunos tem a Escola A?")
}

func TestCompose_QuestionIsVerbatim(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)

	question := `<b>"R$ 1.000" & {{.context}}</b>`
	out, err := c.Compose(nil, question)
	require.NoError(t, err)
	assert.Contains(t, out, "Pergunta do cliente: "+question)
	assert.Contains(t, out, "Contexto: \n")
}

func TestNewComposer_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("C={{.context}} Q={{.question}}"), 0o644))

	c, err := NewComposer(path)
	require.NoError(t, err)

	out, err := c.Compose([]models.Record{{Text: "a"}, {Text: "b"}}, "q")
	require.NoError(t, err)
	assert.Equal(t, "C=a\n---\nb Q=q", out)
}

func TestNewComposer_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.tmpl")
	require.NoError(t, os.WriteFile(broken, []byte("{{.context"), 0o644))
	unknown := filepath.Join(dir, "unknown.tmpl")
	require.NoError(t, os.WriteFile(unknown, []byte("{{.context}} {{.history}}"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nope.tmpl")},
		{"parse error", broken},
		{"unknown variable", unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewComposer(tt.path)
			require.Error(t, err)
			var cfgErr *models.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "rag.prompt_file", cfgErr.Key)
		})
	}
}
