package internal

import (
	"fmt"
	"sync"
	"time"
	"unicode"
)

// MergeWindow is how long an inserted timecode can still be merged into a range
const MergeWindow = 4 * time.Second

// AnnotationState is the state of the timecode annotation machine
type AnnotationState int

const (
	// AnnotationIdle means there is no insertion to merge with.
	AnnotationIdle AnnotationState = iota
	// AnnotationArmed means the last insertion may still become a range.
	AnnotationArmed
)

func (s AnnotationState) String() string {
	switch s {
	case AnnotationIdle:
		return "idle"
	case AnnotationArmed:
		return "armed"
	default:
		return fmt.Sprintf("AnnotationState(%d)", int(s))
	}
}

// timecodeInsertion is the single live record of the last inserted label
type timecodeInsertion struct {
	input   TextInput
	label   string
	rawTime string
	file    string
	index   int // rune offset of label inside input
	at      time.Time
}

// InsertResult describes what an insertion wrote into the input
type InsertResult struct {
	Label  string
	Index  int
	Merged bool
}

// AnnotationEngine inserts timecode labels into prompt inputs and merges two
// quick insertions on the same media into one range label.
//
// Inputs are compared by identity, so TextInput implementations must be
// comparable (pointer types such as *TextField).
type AnnotationEngine struct {
	mu     sync.Mutex
	now    func() time.Time
	window time.Duration
	live   *timecodeInsertion
}

// AnnotationOption configures an AnnotationEngine
type AnnotationOption func(*AnnotationEngine)

// WithClock replaces time.Now
func WithClock(now func() time.Time) AnnotationOption {
	return func(e *AnnotationEngine) {
		e.now = now
	}
}

// WithMergeWindow overrides MergeWindow
func WithMergeWindow(d time.Duration) AnnotationOption {
	return func(e *AnnotationEngine) {
		e.window = d
	}
}

// NewAnnotationEngine creates an idle engine
func NewAnnotationEngine(opts ...AnnotationOption) *AnnotationEngine {
	e := &AnnotationEngine{
		now:    time.Now,
		window: MergeWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports Armed while a record is held. Expiry is only observed by
// the next Insert.
func (e *AnnotationEngine) State() AnnotationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live != nil {
		return AnnotationArmed
	}
	return AnnotationIdle
}

// Reset drops the live record
func (e *AnnotationEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.live = nil
}

// InsertAt formats seconds and inserts them like Insert
func (e *AnnotationEngine) InsertAt(input TextInput, seconds float64, file string) InsertResult {
	return e.Insert(input, FormatTimestamp(seconds), file)
}

// Insert writes "[file time]" (or "[time]" without a file) at the cursor of
// input. If the previous insertion can be merged it is replaced by a range
// label instead and the engine returns to Idle.
func (e *AnnotationEngine) Insert(input TextInput, timeText, file string) InsertResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if prev := e.live; prev != nil && e.canMerge(prev, input, file, now) {
		label := rangeLabel(prev.file, file, prev.rawTime, timeText)
		replaceSpan(input, prev.index, len([]rune(prev.label)), label)
		e.live = nil
		LogDebug("Merged timecode %s into %s", prev.label, label)
		return InsertResult{Label: label, Index: prev.index, Merged: true}
	}

	label := timecodeLabel(file, timeText)
	index := insertPadded(input, label)
	e.live = &timecodeInsertion{
		input:   input,
		label:   label,
		rawTime: timeText,
		file:    file,
		index:   index,
		at:      now,
	}
	return InsertResult{Label: label, Index: index}
}

// InsertFileReference writes "[file]" with the same padding rule. It never
// merges and leaves the live record alone.
func (e *AnnotationEngine) InsertFileReference(input TextInput, file string) InsertResult {
	if file == "" {
		return InsertResult{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	label := "[" + file + "]"
	index := insertPadded(input, label)
	return InsertResult{Label: label, Index: index}
}

// canMerge is the Armed -> Idle transition guard
func (e *AnnotationEngine) canMerge(prev *timecodeInsertion, input TextInput, file string, now time.Time) bool {
	if prev.input != input {
		return false
	}
	if now.Sub(prev.at) > e.window {
		return false
	}
	if !sameFile(prev.file, file) {
		return false
	}
	return spanEquals(input.Text(), prev.index, prev.label)
}

// sameFile treats an omitted file as compatible with any file
func sameFile(a, b string) bool {
	return a == b || a == "" || b == ""
}

func timecodeLabel(file, timeText string) string {
	if file == "" {
		return "[" + timeText + "]"
	}
	return "[" + file + " " + timeText + "]"
}

func rangeLabel(prevFile, file, from, to string) string {
	if prevFile != "" && prevFile == file {
		return fmt.Sprintf("[%s (%s - %s)]", file, from, to)
	}
	return fmt.Sprintf("[(%s - %s)]", from, to)
}

func spanEquals(text string, index int, label string) bool {
	runes := []rune(text)
	want := []rune(label)
	if index < 0 || index+len(want) > len(runes) {
		return false
	}
	return string(runes[index:index+len(want)]) == label
}

// insertPadded replaces the selection with label, adding a space on a side
// whose neighbour is not already whitespace. It returns the label's offset.
func insertPadded(input TextInput, label string) int {
	text := []rune(input.Text())
	start, end := input.Selection()
	start = clamp(start, 0, len(text))
	end = clamp(end, start, len(text))

	inserted := label
	index := start
	if start > 0 && !unicode.IsSpace(text[start-1]) {
		inserted = " " + inserted
		index++
	}
	if end < len(text) && !unicode.IsSpace(text[end]) {
		inserted += " "
	}

	ins := []rune(inserted)
	out := make([]rune, 0, len(text)-(end-start)+len(ins))
	out = append(out, text[:start]...)
	out = append(out, ins...)
	out = append(out, text[end:]...)

	input.SetText(string(out))
	input.SetCursor(start + len(ins))
	return index
}

func replaceSpan(input TextInput, index, length int, label string) {
	text := []rune(input.Text())
	repl := []rune(label)
	out := make([]rune, 0, len(text)-length+len(repl))
	out = append(out, text[:index]...)
	out = append(out, repl...)
	out = append(out, text[index+length:]...)
	input.SetText(string(out))
	input.SetCursor(index + len(repl))
}
