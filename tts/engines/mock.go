package engines

import (
	"os"
	"sync"
	"time"

	"github.com/voxread/voxread/tts"
)

// Mock is an in-process engine that emits a realistic event sequence on a
// timer instead of producing sound. It backs tests and the mock engine
// selection.
type Mock struct {
	mu       sync.Mutex
	subs     *subscriptions
	wpm      int
	rate     float64
	language string
	voice    string
	cancel   chan struct{}

	// SpeakErr, when set, fails the next Speak call.
	SpeakErr error
	// ConfigErr, when set, fails the Set* calls.
	ConfigErr error
}

// NewMock creates a mock engine.
func NewMock(cfg Config) *Mock {
	wpm := cfg.WordsPerMinute
	if wpm == 0 {
		wpm = 175
	}
	return &Mock{
		subs: newSubscriptions(),
		wpm:  wpm,
		rate: 1.0,
	}
}

// Speak emits start, per-word progress and finish events on a schedule
// derived from the configured words-per-minute.
func (m *Mock) Speak(text string) error {
	m.mu.Lock()
	if m.SpeakErr != nil {
		err := m.SpeakErr
		m.mu.Unlock()
		return err
	}
	m.stopLocked()
	cancel := make(chan struct{})
	m.cancel = cancel
	perWord := m.perWord()
	m.mu.Unlock()

	go m.run(text, perWord, cancel)
	return nil
}

func (m *Mock) run(text string, perWord time.Duration, cancel chan struct{}) {
	m.emit(tts.Event{Kind: tts.EventStart})
	for _, w := range wordSpans(text) {
		select {
		case <-cancel:
			m.emit(tts.Event{Kind: tts.EventCancel})
			return
		case <-time.After(perWord):
			m.emit(tts.Event{Kind: tts.EventProgress, Location: w.start, Length: w.length})
		}
	}
	m.emit(tts.Event{Kind: tts.EventFinish})
}

// Stop cancels the active utterance.
func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	return nil
}

func (m *Mock) stopLocked() {
	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}
}

// SetLanguage records the language code.
func (m *Mock) SetLanguage(code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return m.ConfigErr
	}
	m.language = code
	return nil
}

// SetVoice records the voice identifier.
func (m *Mock) SetVoice(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return m.ConfigErr
	}
	m.voice = id
	return nil
}

// SetRate scales the progress schedule.
func (m *Mock) SetRate(rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return m.ConfigErr
	}
	if rate > 0 {
		m.rate = rate
	}
	return nil
}

// SetPitch is accepted and ignored; the mock produces no audio.
func (m *Mock) SetPitch(float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConfigErr
}

// SynthesizeToFile writes a placeholder payload so export plumbing can be
// exercised without a real synthesizer.
func (m *Mock) SynthesizeToFile(text, path string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// Voices returns a fixed demo voice.
func (m *Mock) Voices() ([]tts.Voice, error) {
	return []tts.Voice{{ID: "mock-en-1", Name: "Mock English", Language: "en-US"}}, nil
}

// Subscribe registers an event handler.
func (m *Mock) Subscribe(fn func(tts.Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.subs.add(fn)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subs.remove(id)
	}
}

func (m *Mock) emit(ev tts.Event) {
	m.mu.Lock()
	fns := m.subs.snapshot()
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Mock) perWord() time.Duration {
	rate := m.rate
	if rate <= 0 {
		rate = 1.0
	}
	return time.Duration(float64(time.Minute) / (float64(m.wpm) * rate))
}
