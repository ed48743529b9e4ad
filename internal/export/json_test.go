package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/vedit-session/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
	}{
		{"full transcript", internal.CreateTestTranscript("s1")},
		{"empty transcript", internal.CreateTestTranscriptWithMessages("s2", []internal.Message{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONExporter{}).Export(tt.transcript, &buf); err != nil {
				t.Fatalf("JSONExporter.Export() error = %v", err)
			}

			var got internal.Transcript
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("Output is not valid JSON: %v\nOutput: %s", err, buf.String())
			}
			if got.SessionID != tt.transcript.SessionID || len(got.Messages) != len(tt.transcript.Messages) {
				t.Errorf("decoded %+v", got)
			}
			for i, msg := range got.Messages {
				if msg != tt.transcript.Messages[i] {
					t.Errorf("message %d = %+v, want %+v", i, msg, tt.transcript.Messages[i])
				}
			}
			if !strings.Contains(buf.String(), "\n  ") {
				t.Error("Output should be pretty-printed with indentation")
			}
		})
	}
}

func TestJSONExporter_OmitsEmptyInventories(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(internal.CreateTestTranscriptWithMessages("s1", nil), &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "assets") || strings.Contains(buf.String(), "outputs") {
		t.Errorf("empty inventories should be omitted:\n%s", buf.String())
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
