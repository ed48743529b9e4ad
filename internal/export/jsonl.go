package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/vedit-session/internal"
)

// JSONLExporter exports transcripts one message per line
type JSONLExporter struct{}

type jsonlLine struct {
	Session string        `json:"session"`
	Index   int           `json:"index"`
	Role    internal.Role `json:"role"`
	Text    string        `json:"text"`
}

// Export exports a transcript to JSONL format. Inventories are not part
// of the stream.
func (e *JSONLExporter) Export(t *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range t.Messages {
		line := jsonlLine{Session: t.SessionID, Index: i, Role: msg.Role, Text: msg.Text}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
