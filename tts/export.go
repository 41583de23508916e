package tts

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Export synthesizes the full loaded document to an MP3 artifact named
// {sanitized-base-name}_{timestamp}.mp3 under the session's audio directory
// and registers it in the audio library. The file write and the registration
// are not transactional: a failed registration leaves the file on disk.
func (s *Session) Export(baseName string) (Artifact, error) {
	s.mu.Lock()
	content := s.tracker.Content()
	if content == "" {
		s.mu.Unlock()
		return Artifact{}, ErrNoContent
	}

	route, err := SelectProvider(s.cfg.Options.Provider, !s.net.Online())
	if err != nil {
		s.mu.Unlock()
		return Artifact{}, err
	}

	req := NewRequest(content, s.cfg.Options)
	ts := s.now()
	dest := filepath.Join(s.cfg.AudioDir, fmt.Sprintf("%s_%d.mp3", sanitizeBaseName(baseName), ts.UnixMilli()))
	s.mu.Unlock()

	if route.Cloud {
		err = s.cloud.Synthesize(context.Background(), req, dest)
	} else {
		s.mu.Lock()
		s.configureEngine(req)
		s.mu.Unlock()
		err = s.engine.SynthesizeToFile(req.Text, dest)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	name := baseName
	if name == "" {
		name = "Text"
	}
	art := Artifact{
		ID:        strconv.FormatInt(ts.UnixMilli(), 10),
		Name:      name + " Export",
		Path:      dest,
		CreatedAt: ts,
	}

	if s.registry != nil {
		if err := s.registry.Register(art); err != nil {
			// The exported file stays behind; it is not cleaned up.
			s.logger.Error("failed to register exported audio", "path", dest, "error", err)
			return art, fmt.Errorf("register artifact: %w", err)
		}
	}
	return art, nil
}

// sanitizeBaseName lowercases the base name and collapses every run of
// characters outside [a-zA-Z0-9] into a single underscore. An empty result
// falls back to "recording".
func sanitizeBaseName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "recording"
	}
	return b.String()
}
