package tts

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// SessionConfig carries the speech preferences and filesystem layout for a
// session.
type SessionConfig struct {
	// Options are the user's current speech preferences, applied to every
	// request the session builds.
	Options RequestOptions

	// AudioDir is where cloud payloads and exported recordings are written.
	AudioDir string
}

// Session orchestrates speak and export operations for one loaded document.
// It routes requests through the provider selector, drives the chosen
// engine, and publishes progress into the tracker. At most one utterance is
// active at a time; starting a new speak implicitly stops the prior one.
type Session struct {
	engine   Engine
	cloud    CloudSynthesizer
	sink     Sink
	tracker  *Tracker
	net      Connectivity
	registry ArtifactRegistry
	logger   *log.Logger

	mu      sync.Mutex
	cfg     SessionConfig
	machine *StateMachine
	failure error

	// gen identifies the current utterance. Engine events and cloud
	// responses carrying an older generation are discarded, so a stale
	// response can never overwrite a newer session's state.
	gen        uint64
	route      Route
	baseOffset int
	unsub      func()

	onState func(SessionState)
	onError func(error)

	now func() time.Time
}

// NewSession creates a session bound to the given collaborators. registry
// may be nil if exported artifacts need no library registration.
func NewSession(engine Engine, cloud CloudSynthesizer, sink Sink, tracker *Tracker, net Connectivity, registry ArtifactRegistry, cfg SessionConfig, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{
		engine:   engine,
		cloud:    cloud,
		sink:     sink,
		tracker:  tracker,
		net:      net,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
		machine:  NewStateMachine(),
		now:      time.Now,
	}
}

// SetOptions replaces the speech preferences used by subsequent requests.
func (s *Session) SetOptions(opts RequestOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Options = opts
}

// OnStateChange registers a callback invoked after each state transition.
func (s *Session) OnStateChange(fn func(SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// OnError registers a callback for asynchronous failures (cloud dispatch,
// playback). Synchronous failures are returned from the calling method.
func (s *Session) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Err returns the failure reason once the session is in the failed state.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Speak vocalizes the loaded document from the beginning.
func (s *Session) Speak() error {
	return s.speak(0)
}

// SpeakFrom vocalizes the loaded document starting at the given character
// offset, as when resuming from a bookmark.
func (s *Session) SpeakFrom(offset int) error {
	return s.speak(offset)
}

// Resume moves the reading position to offset. If an utterance is in
// flight it is stopped and restarted from the offset; the underlying
// engines cannot seek within an utterance already handed to them.
func (s *Session) Resume(offset int) error {
	s.mu.Lock()
	active := s.machine.Current().Active()
	s.mu.Unlock()

	if active {
		if err := s.Stop(); err != nil {
			return err
		}
		return s.speak(offset)
	}
	s.tracker.Seek(offset)
	return nil
}

// Stop cancels the active utterance. Calling it from an inactive state is a
// no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.machine.Current().Active() {
		s.mu.Unlock()
		return nil
	}
	s.stopLocked()
	s.mu.Unlock()
	s.notifyState()
	return nil
}

func (s *Session) speak(offset int) error {
	s.mu.Lock()

	content := s.tracker.Content()
	if offset < 0 {
		offset = 0
	}
	if content == "" || offset >= len(content) {
		s.mu.Unlock()
		return ErrNoContent
	}

	route, err := SelectProvider(s.cfg.Options.Provider, !s.net.Online())
	if err != nil {
		// Surface to the caller; any active utterance keeps playing and an
		// idle session stays idle.
		s.mu.Unlock()
		return err
	}

	if s.machine.Current().Active() {
		s.stopLocked()
	}

	s.tracker.Seek(offset)
	req := NewRequest(content[offset:], s.cfg.Options)

	if route.Cloud {
		err = s.speakCloudLocked(route, req)
	} else {
		err = s.speakOnDeviceLocked(route, req, offset)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notifyState()
	return nil
}

func (s *Session) speakOnDeviceLocked(route Route, req Request, offset int) error {
	s.configureEngine(req)

	s.gen++
	gen := s.gen
	s.baseOffset = offset
	s.unsub = s.engine.Subscribe(func(ev Event) {
		s.handleEngineEvent(gen, ev)
	})

	if err := s.engine.Speak(req.Text); err != nil {
		s.unsubscribeLocked()
		s.failure = err
		s.machine.Transition(StateFailed)
		return fmt.Errorf("engine speak: %w", err)
	}

	s.route = route
	s.machine.Transition(StateSpeaking)
	return nil
}

func (s *Session) speakCloudLocked(route Route, req Request) error {
	s.gen++
	gen := s.gen
	s.route = route
	s.machine.Transition(StateAwaitingCloudResult)

	dest := filepath.Join(s.cfg.AudioDir, fmt.Sprintf("cloud_tts_%d.mp3", s.now().UnixMilli()))
	go s.dispatchCloud(gen, req, dest)
	return nil
}

// dispatchCloud performs the network round trip off the caller's goroutine.
// The result is applied only if the session generation still matches; a
// response arriving after Stop or a newer Speak is discarded.
func (s *Session) dispatchCloud(gen uint64, req Request, dest string) {
	err := s.cloud.Synthesize(context.Background(), req, dest)

	s.mu.Lock()
	if gen != s.gen || s.machine.Current() != StateAwaitingCloudResult {
		s.mu.Unlock()
		s.logger.Debug("discarding stale cloud synthesis result", "provider", req.Provider, "path", dest)
		return
	}

	if err == nil {
		err = s.sink.Play(dest)
		if err != nil {
			err = fmt.Errorf("playback sink: %w", err)
		}
	} else {
		err = fmt.Errorf("%w: %v", ErrCloudRequestFailed, err)
	}

	if err != nil {
		s.failure = err
		s.machine.Transition(StateFailed)
		s.mu.Unlock()
		s.notifyState()
		s.notifyError(err)
		return
	}

	s.machine.Transition(StateSpeaking)
	s.mu.Unlock()
	s.notifyState()
}

func (s *Session) handleEngineEvent(gen uint64, ev Event) {
	s.mu.Lock()
	if gen != s.gen {
		// Event from a torn-down utterance.
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventStart:
		s.mu.Unlock()
	case EventProgress:
		s.tracker.HandleProgress(s.baseOffset+ev.Location, ev.Length)
		s.mu.Unlock()
	case EventFinish:
		s.tracker.Reset()
		s.machine.Transition(StateFinished)
		s.unsubscribeLocked()
		s.mu.Unlock()
		s.notifyState()
	case EventCancel:
		s.tracker.Reset()
		s.machine.Transition(StateCancelled)
		s.unsubscribeLocked()
		s.mu.Unlock()
		s.notifyState()
	default:
		s.mu.Unlock()
	}
}

// stopLocked halts the active engine or playback sink, invalidates in-flight
// results and moves the session to cancelled.
func (s *Session) stopLocked() {
	s.gen++

	if s.route.Cloud {
		if s.machine.Current() == StateSpeaking {
			if err := s.sink.Stop(); err != nil {
				s.logger.Warn("failed to stop playback sink", "error", err)
			}
		}
		// An in-flight synthesis request is not aborted; its response is
		// discarded by the generation check.
	} else {
		if err := s.engine.Stop(); err != nil {
			s.logger.Warn("failed to stop engine", "error", err)
		}
	}

	s.unsubscribeLocked()
	s.tracker.Reset()
	s.machine.Transition(StateCancelled)
}

func (s *Session) unsubscribeLocked() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// configureEngine applies voice settings best-effort. A failed configuration
// call is logged and ignored; speech proceeds with engine defaults.
func (s *Session) configureEngine(req Request) {
	type setting struct {
		name  string
		apply func() error
	}
	settings := []setting{
		{"language", func() error { return s.engine.SetLanguage(req.Language) }},
		{"rate", func() error { return s.engine.SetRate(req.Rate) }},
		{"pitch", func() error { return s.engine.SetPitch(req.Pitch) }},
	}
	if req.VoiceID != "" {
		settings = append([]setting{{"voice", func() error { return s.engine.SetVoice(req.VoiceID) }}}, settings...)
	}
	for _, st := range settings {
		if err := st.apply(); err != nil {
			s.logger.Warn("engine configuration failed, using default", "setting", st.name, "error", err)
		}
	}
}

func (s *Session) notifyState() {
	s.mu.Lock()
	fn := s.onState
	state := s.machine.Current()
	s.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

func (s *Session) notifyError(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
