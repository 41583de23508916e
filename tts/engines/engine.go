// Package engines provides on-device speech engine implementations.
package engines

import (
	"fmt"
	"strings"

	"github.com/voxread/voxread/tts"
)

// Config holds construction options shared by the engine implementations.
type Config struct {
	// Binary is the espeak executable; defaults to espeak-ng with an
	// espeak fallback.
	Binary string

	// WordsPerMinute calibrates progress estimation. Defaults to 175,
	// roughly espeak's default speaking rate.
	WordsPerMinute int
}

// New constructs the named on-device engine.
func New(name string, cfg Config) (tts.Engine, error) {
	switch strings.ToLower(name) {
	case "espeak":
		return NewESpeak(cfg)
	case "mock":
		return NewMock(cfg), nil
	default:
		return nil, fmt.Errorf("unknown engine %q: must be espeak or mock", name)
	}
}

// wordSpan is a single word's character window within spoken text.
type wordSpan struct {
	start  int
	length int
}

// wordSpans splits text into word windows for progress emission.
func wordSpans(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	for i, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			if start >= 0 {
				spans = append(spans, wordSpan{start: start, length: i - start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{start: start, length: len(text) - start})
	}
	return spans
}

// subscriptions is the shared handler registry. Handlers are invoked in
// emission order from a single emitting goroutine per utterance.
type subscriptions struct {
	handlers map[int]func(tts.Event)
	next     int
}

func newSubscriptions() *subscriptions {
	return &subscriptions{handlers: make(map[int]func(tts.Event))}
}

func (s *subscriptions) add(fn func(tts.Event)) int {
	id := s.next
	s.next++
	s.handlers[id] = fn
	return id
}

func (s *subscriptions) remove(id int) {
	delete(s.handlers, id)
}

func (s *subscriptions) snapshot() []func(tts.Event) {
	fns := make([]func(tts.Event), 0, len(s.handlers))
	for _, fn := range s.handlers {
		fns = append(fns, fn)
	}
	return fns
}
