package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraculo-educacao/internal/config"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Setup(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Str("component", "test").Msg("hello")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestSetup_EmptyLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Setup(config.LogConfig{}, &buf)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetup_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	_, err := Setup(config.LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oraculo.log")
	closer, err := Setup(config.LogConfig{Level: "info", File: path}, nil)
	require.NoError(t, err)
	log.Info().Msg("to file")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
}
