package helper

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraculo-educacao/internal/models"
)

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]int{"alunos": 200})
	assert.Equal(t, "{\n  \"alunos\": 200\n}\n", buf.String())
}

func TestCreateFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateFolder(dir))
	assert.DirExists(t, dir)
	assert.NoError(t, CreateFolder(""))
}

func TestFingerprint(t *testing.T) {
	records := []models.Record{
		{Row: 0, Text: "Escola A tem 200 alunos"},
		{Row: 1, Text: "Escola B tem 150 alunos"},
	}

	a := Fingerprint("nomic-embed-text", records)
	assert.Equal(t, a, Fingerprint("nomic-embed-text", records))
	assert.NotEqual(t, a, Fingerprint("other-model", records))
	assert.NotEqual(t, a, Fingerprint("nomic-embed-text", records[:1]))

	changed := []models.Record{records[0], {Row: 1, Text: "Escola B tem 151 alunos"}}
	assert.NotEqual(t, a, Fingerprint("nomic-embed-text", changed))

	moved := []models.Record{
		{Row: 0, Source: "novo/kb.csv", Text: "Escola A tem 200 alunos"},
		{Row: 1, Source: "novo/kb.csv", Text: "Escola B tem 150 alunos"},
	}
	assert.NotEqual(t, a, Fingerprint("nomic-embed-text", moved))
}
