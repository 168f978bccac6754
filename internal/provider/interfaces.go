package provider

import (
	"context"
	"fmt"
)

// Provider names used for routing, usage attribution, and cost rates
const (
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
)

// TTSProvider defines the interface for TTS providers
type TTSProvider interface {
	// Name returns the provider name
	Name() string

	// Synthesize converts text to speech
	Synthesize(ctx context.Context, req TTSRequest) (*TTSResponse, error)

	// Close cleans up resources
	Close() error
}

// TTSRequest contains the text and voice settings for synthesis
type TTSRequest struct {
	Text    string // Text to synthesize, already normalized and chunk-sized
	VoiceID string // Provider-specific voice ID
	ModelID string // Provider-specific model, empty means provider default
	Format  string // "mp3" or "wav"
}

// TTSResponse contains the synthesized audio and metadata
type TTSResponse struct {
	AudioData []byte // Audio file data
	Format    string // Audio format (e.g., "wav", "mp3")
}

// SynthesisError carries the provider and HTTP status of a failed API call
// so callers can log and classify failures without parsing messages.
type SynthesisError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}
