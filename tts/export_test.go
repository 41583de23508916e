package tts

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSanitizeBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Report!", "my_report"},
		{"Hello World 2", "hello_world_2"},
		{"already-clean", "already_clean"},
		{"Meeting Notes (Final).txt", "meeting_notes_final_txt"},
		{"", "recording"},
		{"!!!", "recording"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeBaseName(tt.in); got != tt.want {
				t.Errorf("sanitizeBaseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExportNaming(t *testing.T) {
	f := newFixture(t, ProviderOnDevice, true)
	f.tracker.SetContent("export me")
	f.session.now = func() time.Time { return time.UnixMilli(1700000000000) }

	art, err := f.session.Export("My Report!")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if !strings.HasSuffix(art.Path, "my_report_1700000000000.mp3") {
		t.Errorf("artifact path = %q, want my_report_1700000000000.mp3 suffix", art.Path)
	}
	if art.ID != "1700000000000" {
		t.Errorf("artifact id = %q, want timestamp-based id", art.ID)
	}
	if art.Name != "My Report! Export" {
		t.Errorf("artifact name = %q", art.Name)
	}
	if len(f.reg.arts) != 1 {
		t.Fatalf("registered artifacts = %d, want 1", len(f.reg.arts))
	}
	if _, ok := f.engine.written[art.Path]; !ok {
		t.Error("engine did not synthesize to the artifact path")
	}
}

func TestExportUnsupportedEngine(t *testing.T) {
	f := newFixture(t, ProviderOnDevice, true)
	f.tracker.SetContent("export me")
	f.engine.fileErr = ErrExportUnsupported

	if _, err := f.session.Export("doc"); !errors.Is(err, ErrExportFailed) {
		t.Fatalf("Export() error = %v, want ErrExportFailed", err)
	}
	if len(f.reg.arts) != 0 {
		t.Error("failed export must not be registered")
	}
}

func TestExportOfflineCloud(t *testing.T) {
	f := newFixture(t, ProviderAzure, false)
	f.tracker.SetContent("export me")

	if _, err := f.session.Export("doc"); !errors.Is(err, ErrOfflineCloudUnavailable) {
		t.Fatalf("Export() error = %v, want ErrOfflineCloudUnavailable", err)
	}
}

func TestExportViaCloud(t *testing.T) {
	f := newFixture(t, ProviderAmazon, true)
	f.tracker.SetContent("export me")

	art, err := f.session.Export("doc")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if f.cloud.callCount() != 1 {
		t.Errorf("cloud calls = %d, want 1", f.cloud.callCount())
	}
	if f.cloud.lastTo != art.Path {
		t.Errorf("cloud wrote to %q, artifact says %q", f.cloud.lastTo, art.Path)
	}
}

func TestExportRegistrationFailureKeepsFile(t *testing.T) {
	f := newFixture(t, ProviderOnDevice, true)
	f.tracker.SetContent("export me")
	f.reg.err = errors.New("store closed")

	art, err := f.session.Export("doc")
	if err == nil {
		t.Fatal("expected registration error")
	}
	if art.Path == "" {
		t.Error("artifact should still describe the written file")
	}
	if _, ok := f.engine.written[art.Path]; !ok {
		t.Error("orphaned file should remain written")
	}
}

func TestExportNoContent(t *testing.T) {
	f := newFixture(t, ProviderOnDevice, true)
	if _, err := f.session.Export("doc"); !errors.Is(err, ErrNoContent) {
		t.Fatalf("Export() error = %v, want ErrNoContent", err)
	}
}
