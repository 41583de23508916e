// Package tts implements the synthesis session core: provider routing,
// session lifecycle, reading-position tracking and audio export.
package tts

import (
	"context"
	"time"
)

// Provider identifiers. Everything except ProviderOnDevice is a cloud
// provider reached through the synthesis backend.
const (
	ProviderOnDevice = "on-device"
	ProviderAmazon   = "amazon"
	ProviderGoogle   = "google"
	ProviderAzure    = "azure"
)

// EventKind identifies an on-device engine callback.
type EventKind int

const (
	// EventStart fires when the engine begins speaking an utterance.
	EventStart EventKind = iota
	// EventProgress fires as the engine advances through the utterance.
	EventProgress
	// EventFinish fires when the utterance completes normally.
	EventFinish
	// EventCancel fires when the utterance is stopped early.
	EventCancel
)

// Event is an on-device engine callback. Location and Length describe the
// span currently being vocalized, in characters relative to the spoken text.
// They are only meaningful for EventProgress.
type Event struct {
	Kind     EventKind
	Location int
	Length   int
}

// Engine is the contract required from an on-device speech engine. The
// Set* calls are best-effort: a failure degrades to default voice behavior
// and must never abort the calling operation.
type Engine interface {
	// Speak starts vocalizing text. Any utterance already in flight is
	// replaced.
	Speak(text string) error

	// Stop halts the current utterance. Stopping an idle engine is a no-op.
	Stop() error

	// SetLanguage, SetVoice, SetRate and SetPitch configure subsequent
	// utterances.
	SetLanguage(code string) error
	SetVoice(id string) error
	SetRate(rate float64) error
	SetPitch(pitch float64) error

	// SynthesizeToFile writes the full utterance to path instead of playing
	// it. Engines without file support return ErrExportUnsupported.
	SynthesizeToFile(text, path string) error

	// Voices lists the voices the engine offers.
	Voices() ([]Voice, error)

	// Subscribe registers an event handler and returns a handle that
	// removes it. Handlers are invoked in emission order.
	Subscribe(fn func(Event)) (cancel func())
}

// CloudSynthesizer dispatches a synthesis request to the remote backend and
// writes the binary audio payload to destPath.
type CloudSynthesizer interface {
	Synthesize(ctx context.Context, req Request, destPath string) error
}

// Sink plays a synthesized audio file. Cloud playback reports no sub-span
// progress; the sink only knows whether it is playing.
type Sink interface {
	Play(path string) error
	Stop() error
	Playing() bool
}

// Connectivity reports whether the network is reachable.
type Connectivity interface {
	Online() bool
}

// Voice describes a synthesis voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"languageCode"`
	Gender   string `json:"gender,omitempty"`
}

// Artifact is an exported audio recording registered in the audio library.
type Artifact struct {
	ID        string
	Name      string
	Path      string
	CreatedAt time.Time
}

// ArtifactRegistry receives freshly exported artifacts. Registration happens
// after the file write and is not transactional with it; a failed
// registration leaves the file on disk.
type ArtifactRegistry interface {
	Register(Artifact) error
}
