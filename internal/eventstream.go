package internal

import (
	"bufio"
	"io"
	"strings"
)

// maxEventLine bounds a single text/event-stream line
const maxEventLine = 1 << 20

// streamEvent is one dispatched text/event-stream event
type streamEvent struct {
	Name string
	Data string
	ID   string
}

// readEventStream parses a text/event-stream body and calls fn per event.
// It returns nil when the body ends cleanly.
func readEventStream(r io.Reader, fn func(streamEvent)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	var (
		name string
		id   string
		data []string
	)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if len(data) > 0 {
				if name == "" {
					name = "message"
				}
				fn(streamEvent{Name: name, Data: strings.Join(data, "\n"), ID: id})
			}
			name, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		case "id":
			id = value
		}
	}
	return sc.Err()
}
