// Package audio plays MP3 artifacts produced by cloud synthesis.
package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
)

// Player plays local MP3 files through the system audio device. It
// implements the session's playback sink contract: Play, Stop, Playing.
type Player struct {
	mu      sync.Mutex
	context *oto.Context
	player  *oto.Player
	file    *os.File
	logger  *log.Logger
}

// NewPlayer creates a player. The audio device is opened lazily on the
// first Play, since decoding parameters come from the file.
func NewPlayer(logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{logger: logger}
}

// Play starts playback of the MP3 at path, stopping any current playback
// first. Playback proceeds in the background; Play returns once audio
// starts.
func (p *Player) Play(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode mp3: %w", err)
	}

	if p.context == nil {
		options := &oto.NewContextOptions{
			SampleRate:   decoder.SampleRate(),
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		}
		context, ready, err := oto.NewContext(options)
		if err != nil {
			f.Close()
			return fmt.Errorf("open audio device: %w", err)
		}
		select {
		case <-ready:
		case <-time.After(5 * time.Second):
			f.Close()
			return fmt.Errorf("audio device not ready")
		}
		p.context = context
	}

	p.file = f
	p.player = p.context.NewPlayer(decoder)
	p.player.Play()
	p.logger.Debug("playback started", "path", path)
	return nil
}

// Stop halts playback. Stopping an idle player is a no-op.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.player != nil {
		p.player.Pause()
		if err := p.player.Close(); err != nil {
			p.logger.Warn("could not close audio player", "error", err)
		}
		p.player = nil
	}
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
}

// Playing reports whether audio is currently audible.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// Close releases the player. The underlying audio device stays open for the
// process lifetime, which is how the device library expects to be used.
func (p *Player) Close() error {
	return p.Stop()
}
