package engines

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/voxread/voxread/tts"
)

func collectEvents(t *testing.T, m *Mock, text string, want int) []tts.Event {
	t.Helper()

	var mu sync.Mutex
	var events []tts.Event
	cancel := m.Subscribe(func(ev tts.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer cancel()

	if err := m.Speak(text); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n >= want {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]tts.Event(nil), events...)
}

func TestMockEventSequence(t *testing.T) {
	m := NewMock(Config{WordsPerMinute: 60000}) // effectively instant
	events := collectEvents(t, m, "hello brave world", 5)

	if len(events) < 5 {
		t.Fatalf("got %d events, want start + 3 progress + finish", len(events))
	}
	if events[0].Kind != tts.EventStart {
		t.Errorf("first event = %v, want start", events[0].Kind)
	}
	if events[len(events)-1].Kind != tts.EventFinish {
		t.Errorf("last event = %v, want finish", events[len(events)-1].Kind)
	}

	progress := events[1 : len(events)-1]
	wantSpans := []struct{ loc, length int }{{0, 5}, {6, 5}, {12, 5}}
	for i, ev := range progress {
		if ev.Kind != tts.EventProgress {
			t.Fatalf("event %d = %v, want progress", i+1, ev.Kind)
		}
		if ev.Location != wantSpans[i].loc || ev.Length != wantSpans[i].length {
			t.Errorf("progress %d = (%d,%d), want (%d,%d)", i, ev.Location, ev.Length, wantSpans[i].loc, wantSpans[i].length)
		}
	}
}

func TestMockStopEmitsCancel(t *testing.T) {
	m := NewMock(Config{WordsPerMinute: 1}) // one word per minute: never finishes
	events := collectEvents(t, m, "one two three", 1)
	if events[0].Kind != tts.EventStart {
		t.Fatalf("first event = %v, want start", events[0].Kind)
	}

	var mu sync.Mutex
	var got []tts.Event
	cancel := m.Subscribe(func(ev tts.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	defer cancel()

	if err := m.Stop(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 || got[len(got)-1].Kind != tts.EventCancel {
		t.Errorf("expected cancel event after Stop, got %v", got)
	}
}

func TestMockSynthesizeToFile(t *testing.T) {
	m := NewMock(Config{})
	path := filepath.Join(t.TempDir(), "out.mp3")

	if err := m.SynthesizeToFile("payload", path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("file contents = %q", data)
	}
}

func TestWordSpans(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []wordSpan
	}{
		{"simple", "ab cd", []wordSpan{{0, 2}, {3, 2}}},
		{"leading and trailing space", "  ab  ", []wordSpan{{2, 2}}},
		{"newlines", "ab\ncd", []wordSpan{{0, 2}, {3, 2}}},
		{"empty", "", nil},
		{"only spaces", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wordSpans(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("wordSpans(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("span %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewUnknownEngine(t *testing.T) {
	if _, err := New("festival", Config{}); err == nil {
		t.Error("expected error for unknown engine name")
	}
}
