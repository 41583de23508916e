package engines

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/voxread/voxread/tts"
)

// ESpeak drives the espeak-ng binary as the on-device engine. espeak does
// not report word boundaries over its CLI, so progress events are estimated
// from the configured speaking rate while the process runs.
type ESpeak struct {
	binary string
	wpm    int

	mu        sync.Mutex
	subs      *subscriptions
	language  string
	voice     string
	rate      float64
	pitch     float64
	cmd       *exec.Cmd
	cancel    chan struct{}
	cancelled bool

	logger *log.Logger
}

// NewESpeak creates an espeak engine, locating the binary on PATH.
func NewESpeak(cfg Config) (*ESpeak, error) {
	candidates := []string{cfg.Binary, "espeak-ng", "espeak"}
	var binary string
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if path, err := exec.LookPath(c); err == nil {
			binary = path
			break
		}
	}
	if binary == "" {
		return nil, fmt.Errorf("espeak binary not found on PATH (tried espeak-ng, espeak)")
	}

	wpm := cfg.WordsPerMinute
	if wpm == 0 {
		wpm = 175
	}
	return &ESpeak{
		binary: binary,
		wpm:    wpm,
		subs:   newSubscriptions(),
		rate:   1.0,
		pitch:  1.0,
		logger: log.Default(),
	}, nil
}

// Speak starts an espeak process for text. A process already running is
// killed first.
func (e *ESpeak) Speak(text string) error {
	e.mu.Lock()
	e.stopLocked()

	cmd := exec.Command(e.binary, e.argsLocked(nil, text)...)
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("start espeak: %w", err)
	}

	cancel := make(chan struct{})
	e.cmd = cmd
	e.cancel = cancel
	e.cancelled = false
	perWord := time.Duration(float64(time.Minute) / (float64(e.wpm) * e.rate))
	e.mu.Unlock()

	go e.emitProgress(text, perWord, cancel)
	go e.await(cmd, cancel)
	return nil
}

// emitProgress walks the words of the utterance on the estimated schedule.
// Real boundary data isn't available from the CLI; the estimate is good
// enough to keep the highlight moving.
func (e *ESpeak) emitProgress(text string, perWord time.Duration, cancel chan struct{}) {
	e.emit(tts.Event{Kind: tts.EventStart})
	for _, w := range wordSpans(text) {
		select {
		case <-cancel:
			return
		case <-time.After(perWord):
			e.emit(tts.Event{Kind: tts.EventProgress, Location: w.start, Length: w.length})
		}
	}
}

func (e *ESpeak) await(cmd *exec.Cmd, cancel chan struct{}) {
	err := cmd.Wait()

	e.mu.Lock()
	cancelled := e.cancelled
	if e.cmd == cmd {
		e.cmd = nil
		if e.cancel == cancel && !cancelled {
			close(cancel)
			e.cancel = nil
		}
	}
	e.mu.Unlock()

	if cancelled {
		e.emit(tts.Event{Kind: tts.EventCancel})
		return
	}
	if err != nil {
		e.logger.Warn("espeak exited with error", "error", err)
	}
	e.emit(tts.Event{Kind: tts.EventFinish})
}

// Stop kills the running espeak process, if any.
func (e *ESpeak) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

func (e *ESpeak) stopLocked() {
	if e.cmd == nil {
		return
	}
	e.cancelled = true
	if e.cancel != nil {
		close(e.cancel)
		e.cancel = nil
	}
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	e.cmd = nil
}

// SetLanguage sets the voice language for subsequent utterances.
func (e *ESpeak) SetLanguage(code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.language = code
	return nil
}

// SetVoice sets an explicit espeak voice name.
func (e *ESpeak) SetVoice(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voice = id
	return nil
}

// SetRate sets the speaking rate multiplier.
func (e *ESpeak) SetRate(rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rate <= 0 {
		return fmt.Errorf("rate must be positive, got %v", rate)
	}
	e.rate = rate
	return nil
}

// SetPitch sets the pitch multiplier.
func (e *ESpeak) SetPitch(pitch float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pitch <= 0 {
		return fmt.Errorf("pitch must be positive, got %v", pitch)
	}
	e.pitch = pitch
	return nil
}

// SynthesizeToFile renders text to a WAV via espeak and transcodes it to
// MP3 with ffmpeg. Without ffmpeg on PATH the export is unsupported.
func (e *ESpeak) SynthesizeToFile(text, path string) error {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return tts.ErrExportUnsupported
	}

	wav := filepath.Join(os.TempDir(), fmt.Sprintf("voxread_export_%d.wav", time.Now().UnixNano()))
	defer os.Remove(wav)

	e.mu.Lock()
	args := e.argsLocked([]string{"-w", wav}, text)
	e.mu.Unlock()

	if out, err := exec.Command(e.binary, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("espeak synthesis: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if out, err := exec.Command(ffmpeg, "-y", "-i", wav, "-codec:a", "libmp3lame", "-qscale:a", "4", path).CombinedOutput(); err != nil {
		return fmt.Errorf("mp3 transcode: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Voices lists the voices known to the espeak installation.
func (e *ESpeak) Voices() ([]tts.Voice, error) {
	out, err := exec.Command(e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list espeak voices: %w", err)
	}

	var voices []tts.Voice
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 { // header row
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		gender := ""
		if strings.Contains(fields[2], "M") {
			gender = "male"
		} else if strings.Contains(fields[2], "F") {
			gender = "female"
		}
		voices = append(voices, tts.Voice{
			ID:       fields[3],
			Name:     fields[3],
			Language: fields[1],
			Gender:   gender,
		})
	}
	return voices, nil
}

// Subscribe registers an event handler.
func (e *ESpeak) Subscribe(fn func(tts.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.subs.add(fn)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs.remove(id)
	}
}

func (e *ESpeak) emit(ev tts.Event) {
	e.mu.Lock()
	fns := e.subs.snapshot()
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// argsLocked assembles the espeak argument list from the current voice
// settings. Callers must hold the mutex.
func (e *ESpeak) argsLocked(extra []string, text string) []string {
	args := make([]string, 0, 8+len(extra))
	args = append(args, "-s", strconv.Itoa(int(e.rate*float64(e.wpm))))

	// espeak pitch runs 0-99 with 50 as neutral.
	p := int(e.pitch * 50)
	if p > 99 {
		p = 99
	}
	args = append(args, "-p", strconv.Itoa(p))

	switch {
	case e.voice != "":
		args = append(args, "-v", e.voice)
	case e.language != "":
		args = append(args, "-v", strings.ToLower(strings.ReplaceAll(e.language, "_", "-")))
	}

	args = append(args, extra...)
	return append(args, text)
}
