// Package config holds the reader's configuration and user preferences.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/language"

	"github.com/voxread/voxread/tts"
)

// Config contains all reader configuration options.
type Config struct {
	// Speech settings
	Provider string  `yaml:"provider" env:"VOXREAD_PROVIDER" envDefault:"on-device"`
	Engine   string  `yaml:"engine" env:"VOXREAD_ENGINE" envDefault:"espeak"`
	Language string  `yaml:"language" env:"VOXREAD_LANGUAGE" envDefault:"en-US"`
	Voice    string  `yaml:"voice" env:"VOXREAD_VOICE"`
	Rate     float64 `yaml:"rate" env:"VOXREAD_RATE" envDefault:"1.0"`
	Pitch    float64 `yaml:"pitch" env:"VOXREAD_PITCH" envDefault:"1.0"`
	Quality  string  `yaml:"quality" env:"VOXREAD_QUALITY" envDefault:"high"`

	// Backend settings
	APIBase string `yaml:"api_base" env:"VOXREAD_API_BASE" envDefault:"https://api.voxread.app"`
	Token   string `yaml:"-" env:"VOXREAD_TOKEN"`

	// Local paths
	AudioDir string `yaml:"audio_dir" env:"VOXREAD_AUDIO_DIR"`
	DataDir  string `yaml:"data_dir" env:"VOXREAD_DATA_DIR"`

	// Appearance
	DarkMode bool `yaml:"dark_mode" env:"VOXREAD_DARK_MODE" envDefault:"false"`

	// Notifications (synced preference; nothing local consumes it)
	Notifications bool `yaml:"notifications" env:"VOXREAD_NOTIFICATIONS" envDefault:"true"`
}

var validQualities = []string{"low", "standard", "high"}

var validProviders = []string{
	tts.ProviderOnDevice,
	tts.ProviderAmazon,
	tts.ProviderGoogle,
	tts.ProviderAzure,
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Provider:      tts.ProviderOnDevice,
		Engine:        "espeak",
		Language:      "en-US",
		Rate:          1.0,
		Pitch:         1.0,
		Quality:       "high",
		APIBase:       "https://api.voxread.app",
		Notifications: true,
	}
}

// FromEnv applies VOXREAD_* environment overrides on top of cfg.
func FromEnv(cfg Config) (Config, error) {
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration, normalizing enum casing and expanding
// home-relative paths.
func (c *Config) Validate() error {
	providerValid := false
	for _, p := range validProviders {
		if strings.EqualFold(c.Provider, p) {
			c.Provider = p
			providerValid = true
			break
		}
	}
	if !providerValid {
		return fmt.Errorf("invalid provider %q: must be one of %v", c.Provider, validProviders)
	}

	qualityValid := false
	for _, q := range validQualities {
		if strings.EqualFold(c.Quality, q) {
			c.Quality = strings.ToLower(c.Quality)
			qualityValid = true
			break
		}
	}
	if !qualityValid {
		return fmt.Errorf("invalid quality %q: must be one of %v", c.Quality, validQualities)
	}

	if c.Rate < tts.MinRate || c.Rate > tts.MaxRate {
		return fmt.Errorf("rate must be between %v and %v, got %v", tts.MinRate, tts.MaxRate, c.Rate)
	}
	if c.Pitch < tts.MinPitch || c.Pitch > tts.MaxPitch {
		return fmt.Errorf("pitch must be between %v and %v, got %v", tts.MinPitch, tts.MaxPitch, c.Pitch)
	}

	if c.Language != "" {
		tag, err := language.Parse(c.Language)
		if err != nil {
			return fmt.Errorf("invalid language %q: %w", c.Language, err)
		}
		c.Language = tag.String()
	}

	for _, dir := range []*string{&c.AudioDir, &c.DataDir} {
		if *dir == "" {
			continue
		}
		expanded, err := homedir.Expand(*dir)
		if err != nil {
			return fmt.Errorf("expand path %q: %w", *dir, err)
		}
		*dir = expanded
	}

	return nil
}

// Options assembles the session request options from the configuration.
func (c Config) Options() tts.RequestOptions {
	return tts.RequestOptions{
		Provider: c.Provider,
		Language: c.Language,
		VoiceID:  c.Voice,
		Rate:     c.Rate,
		Pitch:    c.Pitch,
		Quality:  c.Quality,
	}
}

// Preferences is the snapshot pushed to the backend on sync. Field names
// match the PUT /preferences contract.
type Preferences struct {
	Language string  `json:"language"`
	VoiceID  string  `json:"voiceId"`
	Rate     float64 `json:"rate"`
	Pitch    float64 `json:"pitch"`
	DarkMode bool    `json:"darkMode"`
}

// Preferences extracts the syncable snapshot from the configuration.
func (c Config) Preferences() Preferences {
	return Preferences{
		Language: c.Language,
		VoiceID:  c.Voice,
		Rate:     c.Rate,
		Pitch:    c.Pitch,
		DarkMode: c.DarkMode,
	}
}
