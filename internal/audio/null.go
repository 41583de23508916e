package audio

import "sync"

// Null is a playback sink that discards audio. It stands in for the real
// player on headless systems and in tests.
type Null struct {
	mu      sync.Mutex
	playing bool
	paths   []string
}

// Play records the path and pretends playback started.
func (n *Null) Play(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = true
	n.paths = append(n.paths, path)
	return nil
}

// Stop ends the pretend playback.
func (n *Null) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.playing = false
	return nil
}

// Playing reports the pretend playback state.
func (n *Null) Playing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.playing
}

// Played returns every path handed to Play, oldest first.
func (n *Null) Played() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}
