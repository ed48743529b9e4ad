package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/vedit-session/internal"
)

var (
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	agentMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

func displaySessionHeader(w io.Writer, snap internal.Snapshot) {
	fmt.Fprintln(w, sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", snap.SessionID)))

	meta := []string{
		fmt.Sprintf("Messages: %d", len(snap.Chat.Messages)),
		fmt.Sprintf("Assets: %d", len(snap.Assets.Files)),
		fmt.Sprintf("Outputs: %d", len(snap.Outputs.Files)),
	}
	fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(meta, " • ")))
}

func warnPaneErrors(w io.Writer, snap internal.Snapshot) {
	panes := []struct {
		label string
		err   error
	}{
		{"chat", snap.Chat.Err},
		{"assets", snap.Assets.Err},
		{"outputs", snap.Outputs.Err},
	}
	for _, p := range panes {
		if p.err != nil {
			fmt.Fprintln(w, warningStyle.Render("⚠ "+p.label+" failed to load: ")+p.err.Error())
		}
	}
}

// displayMessages prints the last limit messages, all of them when limit <= 0
func displayMessages(w io.Writer, msgs []internal.Message, limit int) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, placeholderStyle.Render("No messages yet"))
		return
	}
	start := 0
	if limit > 0 && limit < len(msgs) {
		start = len(msgs) - limit
		fmt.Fprintln(w, placeholderStyle.Render(fmt.Sprintf("... (%d earlier message(s))", start)))
		fmt.Fprintln(w)
	}
	for i := start; i < len(msgs); i++ {
		displayMessage(w, i+1, msgs[i], len(msgs))
	}
}

func displayMessage(w io.Writer, index int, msg internal.Message, total int) {
	var actorStyle lipgloss.Style
	var actorLabel string

	switch msg.Role {
	case internal.RoleUser:
		actorStyle = userMessageStyle
		actorLabel = "👤 You"
	default:
		actorStyle = agentMessageStyle
		actorLabel = "🎬 Agent"
	}

	header := actorStyle.Render(actorLabel)
	if total > 0 {
		header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	}
	fmt.Fprintln(w, header)

	content := strings.TrimSpace(msg.Text)
	if content != "" {
		fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	fmt.Fprintln(w)
}

// displayFiles prints one inventory. selected may be nil.
func displayFiles(w io.Writer, pane internal.PaneState, kind internal.FileKind, selected func(string) bool) {
	if pane.Err != nil {
		fmt.Fprintln(w, errorStyle.Render("Failed to load: ")+pane.Err.Error())
		return
	}
	if pane.Placeholder {
		fmt.Fprintln(w, placeholderStyle.Render("No session selected"))
		return
	}
	if len(pane.Files) == 0 {
		fmt.Fprintln(w, placeholderStyle.Render(fmt.Sprintf("No %ss", kind)))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range pane.Files {
		mark := " "
		if selected != nil && selected(f.Name) {
			mark = "✓"
		}
		age := ""
		if f.Modified > 0 {
			age = humanize.Time(time.UnixMilli(f.Modified))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, f.Name, f.Type(), humanize.Bytes(uint64(max(f.Size, 0))), age)
	}
	_ = tw.Flush()
}

// displayView prints what the view pane shows
func displayView(w io.Writer, snap internal.PaneSnapshot) {
	if snap.Request == nil {
		fmt.Fprintln(w, placeholderStyle.Render("Nothing to view"))
		return
	}
	req := snap.Request
	line := fmt.Sprintf("▶ %s (%s, %s)", req.Name, req.Type, req.Source)
	if req.Timestamp != nil {
		line += " at " + internal.FormatTimestamp(*req.Timestamp)
	}
	fmt.Fprintln(w, headerStyle.Render(line))
	fmt.Fprintln(w, timestampStyle.Render("  "+req.URL))
	if req.AutoplayDelay > 0 {
		fmt.Fprintf(w, "  autoplay in %s\n", req.AutoplayDelay)
	}
	if snap.Artwork != nil {
		fmt.Fprintf(w, "  artwork: %s, %s\n", snap.Artwork.MIMEType, humanize.Bytes(uint64(len(snap.Artwork.Data))))
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}
