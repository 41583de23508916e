package tts

import "sync"

// Position is the character span currently being vocalized. The zero value
// means "no highlight".
type Position struct {
	Start int
	End   int
}

// Tracker maintains the reading position for the loaded document. Engine
// progress events are the sole writers of the position during playback; the
// invariant 0 <= Start <= End <= len(content) always holds.
type Tracker struct {
	mu      sync.RWMutex
	content string
	pos     Position
}

// NewTracker creates a tracker with no content loaded.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetContent replaces the tracked document wholesale and clears the
// position.
func (t *Tracker) SetContent(content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.content = content
	t.pos = Position{}
}

// Content returns the full text of the loaded document.
func (t *Tracker) Content() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.content
}

// Length returns the length of the loaded document in characters.
func (t *Tracker) Length() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.content)
}

// HandleProgress applies an engine progress event (location, length).
// Events against empty content are ignored. Spans are clamped into the
// content bounds.
func (t *Tracker) HandleProgress(location, length int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.content) == 0 || location < 0 || length < 0 {
		return
	}
	start := location
	if start > len(t.content) {
		start = len(t.content)
	}
	end := location + length
	if end > len(t.content) {
		end = len(t.content)
	}
	t.pos = Position{Start: start, End: end}
}

// Seek sets the position to a bare offset, as when resuming from a
// bookmark. The highlight collapses to (offset, offset).
func (t *Tracker) Seek(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.content) {
		offset = len(t.content)
	}
	t.pos = Position{Start: offset, End: offset}
}

// Reset clears the highlight after a finish or cancel.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos = Position{}
}

// Position returns the current highlight span.
func (t *Tracker) Position() Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos
}

// Fraction returns normalized progress in [0,1] for display. Empty content
// yields 0.
func (t *Tracker) Fraction() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.content) == 0 {
		return 0
	}
	f := float64(t.pos.Start) / float64(len(t.content))
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
