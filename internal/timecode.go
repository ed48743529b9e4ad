package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders a media position as MM:SS, or HH:MM:SS once it
// reaches an hour. Fractions are truncated; negative and non-finite values
// render as 00:00.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ParseTimestamp parses "SS", "MM:SS" or "HH:MM:SS" (fractional seconds
// allowed) into seconds.
func ParseTimestamp(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, &TimecodeError{Text: text, Err: errors.New("empty")}
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, &TimecodeError{Text: text, Err: errors.New("too many fields")}
	}

	var total float64
	for i, part := range parts {
		if part == "" {
			return 0, &TimecodeError{Text: text, Err: errors.New("empty field")}
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, &TimecodeError{Text: text, Err: fmt.Errorf("bad field %q", part)}
		}
		// only the last field may carry a fraction
		if i < len(parts)-1 && v != math.Trunc(v) {
			return 0, &TimecodeError{Text: text, Err: fmt.Errorf("fractional field %q", part)}
		}
		total = total*60 + v
	}
	return total, nil
}

// ParseSeekValue decodes the optional timestamp of a view event. The backend
// sends either a JSON number of seconds or a string timecode; null, a missing
// value and the empty string all mean "no seek".
func ParseSeekValue(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		if number < 0 || math.IsNaN(number) {
			return nil, &TimecodeError{Text: string(raw), Err: errors.New("negative")}
		}
		return &number, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, &TimecodeError{Text: string(raw), Err: errors.New("neither number nor string")}
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	seconds, err := ParseTimestamp(text)
	if err != nil {
		return nil, err
	}
	return &seconds, nil
}
