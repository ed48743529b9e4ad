package internal

import "sync"

// TextInput is an editable prompt field. Positions are rune offsets.
type TextInput interface {
	Text() string
	// Selection returns the selected range; start == end is a plain cursor.
	Selection() (start, end int)
	SetText(text string)
	SetCursor(pos int)
}

// TextField is the in-memory TextInput backing the chat and view prompts
type TextField struct {
	mu    sync.Mutex
	name  string
	text  []rune
	start int
	end   int
}

// NewTextField creates an empty field with the cursor at 0
func NewTextField(name string) *TextField {
	return &TextField{name: name}
}

// Name identifies the field in logs
func (f *TextField) Name() string {
	return f.name
}

func (f *TextField) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.text)
}

func (f *TextField) Selection() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.start, f.end
}

// SetText replaces the content and moves the cursor to the end
func (f *TextField) SetText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = []rune(text)
	f.start, f.end = len(f.text), len(f.text)
}

func (f *TextField) SetCursor(pos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos = clamp(pos, 0, len(f.text))
	f.start, f.end = pos, pos
}

// Select sets a selection range, clamped to the text
func (f *TextField) Select(start, end int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start = clamp(start, 0, len(f.text))
	end = clamp(end, 0, len(f.text))
	if end < start {
		start, end = end, start
	}
	f.start, f.end = start, end
}

// Type replaces the selection with s, like a keystroke or paste
func (f *TextField) Type(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ins := []rune(s)
	out := make([]rune, 0, len(f.text)-(f.end-f.start)+len(ins))
	out = append(out, f.text[:f.start]...)
	out = append(out, ins...)
	out = append(out, f.text[f.end:]...)
	f.text = out
	f.start += len(ins)
	f.end = f.start
}

// Clear empties the field
func (f *TextField) Clear() {
	f.SetText("")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
