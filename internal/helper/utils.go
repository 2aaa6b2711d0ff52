package helper

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"oraculo-educacao/internal/models"
)

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

// pretty print
func PrettyPrint(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Fprintln(w, string(b))
}

// CreateFolder creates path and its parents if missing
func CreateFolder(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// Fingerprint identifies the records and embedding model an index was built from.
func Fingerprint(embeddingModel string, records []models.Record) string {
	h := sha256.New()
	h.Write([]byte(embeddingModel))
	h.Write([]byte{0})
	for _, r := range records {
		h.Write([]byte(strconv.Itoa(r.Row)))
		h.Write([]byte{0})
		h.Write([]byte(r.Source))
		h.Write([]byte{0})
		h.Write([]byte(r.Text))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
