package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxread/voxread/internal/identity"
	"github.com/voxread/voxread/tts"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(ClientConfig{
		BaseURL:           srv.URL,
		Tokens:            identity.NewMemory("test-token"),
		RequestsPerMinute: 10000,
	})
	return c, srv
}

func TestSynthesizeWritesAudioFile(t *testing.T) {
	var gotReq tts.Request
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tts/synthesize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Error(err)
		}
		w.Write([]byte("mp3-bytes"))
	}))

	dest := filepath.Join(t.TempDir(), "out.mp3")
	req := tts.NewRequest("hello", tts.RequestOptions{
		Provider: tts.ProviderGoogle,
		Language: "en-US",
		Rate:     1.0,
		Pitch:    1.0,
		Quality:  "high",
	})
	if err := c.Synthesize(context.Background(), req, dest); err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Text != "hello" || gotReq.Provider != tts.ProviderGoogle {
		t.Errorf("request body = %+v", gotReq)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("file contents = %q", data)
	}
}

func TestSynthesizeNonOKStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))

	dest := filepath.Join(t.TempDir(), "out.mp3")
	err := c.Synthesize(context.Background(), tts.Request{Text: "x"}, dest)
	if !errors.Is(err, ErrBackendStatus) {
		t.Errorf("err = %v, want ErrBackendStatus", err)
	}
	if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("audio file created despite error status")
	}
}

func TestExtractText(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/extract-text" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Error(err)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if header.Filename != "report.docx" {
			t.Errorf("filename = %q", header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "extracted body"})
	}))

	path := filepath.Join(t.TempDir(), "report.docx")
	if err := os.WriteFile(path, []byte("docx-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := c.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "extracted body" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractTextServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "unsupported format"})
	}))

	path := filepath.Join(t.TempDir(), "report.docx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := c.ExtractText(context.Background(), path)
	if !errors.Is(err, ErrBackendStatus) {
		t.Errorf("err = %v, want ErrBackendStatus", err)
	}
}

func TestPutPreferences(t *testing.T) {
	var got map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/preferences" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	prefs := map[string]any{"language": "en-US", "rate": 1.5, "darkMode": true}
	if err := c.PutPreferences(context.Background(), prefs); err != nil {
		t.Fatal(err)
	}
	if got["language"] != "en-US" || got["darkMode"] != true {
		t.Errorf("body = %v", got)
	}
}

func TestVoices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices/google" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]tts.Voice{
			{ID: "en-US-Neural2-A", Name: "Neural2 A", Language: "en-US", Gender: "female"},
		})
	}))

	voices, err := c.Voices(context.Background(), "google")
	if err != nil {
		t.Fatal(err)
	}
	if len(voices) != 1 || voices[0].ID != "en-US-Neural2-A" {
		t.Errorf("voices = %v", voices)
	}
}
