package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/visionvoice/visionvoice/pkg/types"
)

// ElevenLabsProvider implements TTSProvider against the ElevenLabs API
type ElevenLabsProvider struct {
	config     types.TTSProviderConfig
	httpClient *http.Client
	model      string
}

// NewElevenLabsProvider creates a new ElevenLabs TTS provider
func NewElevenLabsProvider(config types.TTSProviderConfig) (*ElevenLabsProvider, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for ElevenLabs TTS provider")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for ElevenLabs TTS provider")
	}

	model := config.Model
	if model == "" {
		model = elevenLabsDefaultModel
	}

	timeout := 60 * time.Second
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return &ElevenLabsProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		model: model,
	}, nil
}

func (e *ElevenLabsProvider) Name() string {
	return ProviderElevenLabs
}

// Synthesize converts text to speech using the ElevenLabs API. The voice ID
// in the request must already be the raw ElevenLabs identifier; catalog
// prefixes are stripped during voice resolution.
func (e *ElevenLabsProvider) Synthesize(ctx context.Context, req TTSRequest) (*TTSResponse, error) {
	model := e.model
	if req.ModelID != "" {
		model = req.ModelID
	}

	apiReq := elevenLabsSpeechRequest{
		Text:    req.Text,
		ModelID: model,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
		},
	}

	jsonData, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(e.config.Endpoint, "/") + "/text-to-speech/" + req.VoiceID

	log.Printf("[TTS-elevenlabs] Request: POST %s", endpoint)
	log.Printf("[TTS-elevenlabs] Request payload: model=%s, voice=%s, input_length=%d chars", model, req.VoiceID, len(req.Text))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.config.APIKey)

	startTime := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		log.Printf("[TTS-elevenlabs] Request failed after %v: %v", duration, err)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[TTS-elevenlabs] Response: %d %s (took %v)", resp.StatusCode, resp.Status, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[TTS-elevenlabs] API request failed: %s", truncateString(string(body), 500))
		return nil, &SynthesisError{Provider: ProviderElevenLabs, StatusCode: resp.StatusCode, Body: truncateString(string(body), 500)}
	}

	log.Printf("[TTS-elevenlabs] Response payload: audio_size=%d bytes", len(body))

	// ElevenLabs returns MP3 regardless of the requested format
	return &TTSResponse{
		AudioData: body,
		Format:    "mp3",
	}, nil
}

func (e *ElevenLabsProvider) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

// elevenLabsSpeechRequest represents the ElevenLabs text-to-speech request
type elevenLabsSpeechRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}
