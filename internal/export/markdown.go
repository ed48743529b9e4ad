package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/iksnae/vedit-session/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", t.SessionID)
	_, _ = fmt.Fprintf(w, "**Messages:** %d  \n", len(t.Messages))
	_, _ = fmt.Fprintf(w, "**Assets:** %d  \n", len(t.Assets))
	_, _ = fmt.Fprintf(w, "**Outputs:** %d\n\n", len(t.Outputs))

	writeFiles(w, "Assets", t.Assets)
	writeFiles(w, "Outputs", t.Outputs)

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range t.Messages {
		_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", msg.Role, escapeMarkdown(msg.Text))

		if i < len(t.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func writeFiles(w io.Writer, title string, files []internal.FileDescriptor) {
	if len(files) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "## %s\n\n", title)
	for _, f := range files {
		_, _ = fmt.Fprintf(w, "- `%s` (%s, %s)\n", f.Name, f.Type(), humanize.Bytes(uint64(max(f.Size, 0))))
	}
	_, _ = fmt.Fprintln(w)
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
