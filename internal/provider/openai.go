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

// OpenAIProvider implements TTSProvider using OpenAI-compatible TTS APIs
type OpenAIProvider struct {
	config     types.TTSProviderConfig
	httpClient *http.Client
	model      string
}

// NewOpenAIProvider creates a new OpenAI-compatible TTS provider
func NewOpenAIProvider(config types.TTSProviderConfig) (*OpenAIProvider, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI TTS provider")
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("api_key is required for OpenAI TTS provider")
	}

	model := config.Model
	if model == "" {
		model = "tts-1"
	}

	timeout := 60 * time.Second
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return &OpenAIProvider{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		model: model,
	}, nil
}

func (o *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Synthesize converts text to speech using the OpenAI-compatible API
func (o *OpenAIProvider) Synthesize(ctx context.Context, req TTSRequest) (*TTSResponse, error) {
	format := req.Format
	if format == "" {
		format = "mp3"
	}

	model := o.model
	if req.ModelID != "" {
		model = req.ModelID
	}

	apiReq := openAISpeechRequest{
		Model:          model,
		Input:          req.Text,
		Voice:          req.VoiceID,
		ResponseFormat: format,
	}

	audioData, err := o.callSpeechAPI(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	return &TTSResponse{
		AudioData: audioData,
		Format:    format,
	}, nil
}

func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// openAISpeechRequest represents the OpenAI speech API request structure
type openAISpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format,omitempty"`
}

// openAIErrorResponse represents an error response from the speech API
type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// callSpeechAPI calls the OpenAI-compatible speech endpoint
func (o *OpenAIProvider) callSpeechAPI(ctx context.Context, req openAISpeechRequest) ([]byte, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(o.config.Endpoint, "/") + "/audio/speech"

	log.Printf("[TTS-openai] Request: POST %s", endpoint)
	log.Printf("[TTS-openai] Request payload: model=%s, voice=%s, input_length=%d chars", req.Model, req.Voice, len(req.Input))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.config.APIKey))

	startTime := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		log.Printf("[TTS-openai] Request failed after %v: %v", duration, err)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Printf("[TTS-openai] Response: %d %s (took %v)", resp.StatusCode, resp.Status, duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp openAIErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			log.Printf("[TTS-openai] API error: %s (type: %s, code: %s)", errResp.Error.Message, errResp.Error.Type, errResp.Error.Code)
			return nil, &SynthesisError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: errResp.Error.Message}
		}
		return nil, &SynthesisError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Body: truncateString(string(body), 500)}
	}

	log.Printf("[TTS-openai] Response payload: audio_size=%d bytes", len(body))
	return body, nil
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
