package tts

// Speech parameter bounds. Values outside these ranges are clamped when a
// request is built, never rejected.
const (
	MinRate  = 0.1
	MaxRate  = 2.0
	MinPitch = 0.5
	MaxPitch = 2.0
)

// Request is the value object handed to a synthesis provider. It is built
// fresh per invocation and never mutated after dispatch.
type Request struct {
	Text     string  `json:"text"`
	Provider string  `json:"provider"`
	VoiceID  string  `json:"voiceId,omitempty"`
	Language string  `json:"languageCode"`
	Rate     float64 `json:"speakingRate"`
	Pitch    float64 `json:"pitch"`
	Quality  string  `json:"audioQuality,omitempty"`
}

// RequestOptions carries the user's speech preferences into request building.
type RequestOptions struct {
	Provider string
	VoiceID  string
	Language string
	Rate     float64
	Pitch    float64
	Quality  string
}

// NewRequest builds a synthesis request for text, clamping rate and pitch
// into their supported ranges.
func NewRequest(text string, opts RequestOptions) Request {
	return Request{
		Text:     text,
		Provider: opts.Provider,
		VoiceID:  opts.VoiceID,
		Language: opts.Language,
		Rate:     clamp(opts.Rate, MinRate, MaxRate),
		Pitch:    clamp(opts.Pitch, MinPitch, MaxPitch),
		Quality:  opts.Quality,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
