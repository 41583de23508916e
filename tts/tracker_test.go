package tts

import (
	"strings"
	"testing"
)

func TestTrackerProgress(t *testing.T) {
	tr := NewTracker()
	tr.SetContent(strings.Repeat("a", 100))

	tr.HandleProgress(40, 5)

	if pos := tr.Position(); pos.Start != 40 || pos.End != 45 {
		t.Errorf("Position() = (%d,%d), want (40,45)", pos.Start, pos.End)
	}
	if f := tr.Fraction(); f != 0.40 {
		t.Errorf("Fraction() = %v, want 0.40", f)
	}
}

func TestTrackerEmptyContent(t *testing.T) {
	tr := NewTracker()

	tr.HandleProgress(40, 5)

	if pos := tr.Position(); pos != (Position{}) {
		t.Errorf("progress against empty content should be ignored, got %+v", pos)
	}
	if f := tr.Fraction(); f != 0 {
		t.Errorf("Fraction() = %v for empty content, want 0", f)
	}
}

func TestTrackerClampsToContent(t *testing.T) {
	tests := []struct {
		name     string
		location int
		length   int
		want     Position
	}{
		{"span past end", 95, 20, Position{95, 100}},
		{"location past end", 150, 5, Position{100, 100}},
		{"negative location ignored", -1, 5, Position{}},
		{"negative length ignored", 10, -5, Position{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.SetContent(strings.Repeat("x", 100))
			tr.HandleProgress(tt.location, tt.length)
			if pos := tr.Position(); pos != tt.want {
				t.Errorf("Position() = %+v, want %+v", pos, tt.want)
			}
		})
	}
}

func TestTrackerSeek(t *testing.T) {
	tr := NewTracker()
	tr.SetContent(strings.Repeat("x", 50))

	tr.Seek(30)
	if pos := tr.Position(); pos.Start != 30 || pos.End != 30 {
		t.Errorf("Seek(30) position = %+v, want (30,30)", pos)
	}

	tr.Seek(200)
	if pos := tr.Position(); pos.Start != 50 {
		t.Errorf("Seek past end should clamp to length, got %+v", pos)
	}

	tr.Seek(-3)
	if pos := tr.Position(); pos.Start != 0 {
		t.Errorf("negative Seek should clamp to 0, got %+v", pos)
	}
}

func TestTrackerResetAndReplace(t *testing.T) {
	tr := NewTracker()
	tr.SetContent("hello world")
	tr.HandleProgress(6, 5)

	tr.Reset()
	if pos := tr.Position(); pos != (Position{}) {
		t.Errorf("Reset should clear highlight, got %+v", pos)
	}

	tr.HandleProgress(6, 5)
	tr.SetContent("replacement")
	if pos := tr.Position(); pos != (Position{}) {
		t.Errorf("SetContent should clear highlight, got %+v", pos)
	}
}
