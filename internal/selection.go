package internal

import (
	"sort"
	"sync"
)

// ClickRegion is where on an asset card a click landed
type ClickRegion int

const (
	RegionCard ClickRegion = iota
	RegionCheckbox
	RegionPreview
)

// AssetSelection is the set of checked assets. It is independent of the
// view pane: opening or closing a preview never changes it.
type AssetSelection struct {
	mu       sync.Mutex
	selected map[string]bool
}

// NewAssetSelection creates an empty selection
func NewAssetSelection() *AssetSelection {
	return &AssetSelection{selected: make(map[string]bool)}
}

// Click handles a click on the card of name and returns whether name is
// selected afterwards. Only the card body toggles: the checkbox toggles
// itself through Check, and the preview region belongs to the preview.
func (s *AssetSelection) Click(name string, region ClickRegion) bool {
	if region != RegionCard {
		return s.IsSelected(name)
	}
	return s.Toggle(name)
}

// Check handles a click on the card's checkbox
func (s *AssetSelection) Check(name string) bool {
	return s.Toggle(name)
}

// Toggle flips name and returns the new state
func (s *AssetSelection) Toggle(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected[name] {
		delete(s.selected, name)
		return false
	}
	s.selected[name] = true
	return true
}

// Set selects or deselects name
func (s *AssetSelection) Set(name string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.selected[name] = true
	} else {
		delete(s.selected, name)
	}
}

// IsSelected reports whether name is checked
func (s *AssetSelection) IsSelected(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[name]
}

// Names returns the selected names, sorted
func (s *AssetSelection) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.selected))
	for name := range s.selected {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Retain drops selected names that are no longer in assets
func (s *AssetSelection) Retain(assets []FileDescriptor) {
	present := make(map[string]bool, len(assets))
	for _, a := range assets {
		present[a.Name] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.selected {
		if !present[name] {
			delete(s.selected, name)
		}
	}
}

// Clear deselects everything
func (s *AssetSelection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]bool)
}
