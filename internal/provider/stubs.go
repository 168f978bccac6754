package provider

import (
	"context"
	"sync"
)

// StubTTSProvider is a configurable TTS provider for testing
type StubTTSProvider struct {
	ProviderName string
	// SynthesizeFunc allows per-test behavior; when nil, Synthesize returns
	// a small fake payload derived from the request text.
	SynthesizeFunc func(ctx context.Context, req TTSRequest) (*TTSResponse, error)

	mu    sync.Mutex
	calls []TTSRequest
}

func (s *StubTTSProvider) Name() string {
	if s.ProviderName != "" {
		return s.ProviderName
	}
	return "stub"
}

func (s *StubTTSProvider) Synthesize(ctx context.Context, req TTSRequest) (*TTSResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()

	if s.SynthesizeFunc != nil {
		return s.SynthesizeFunc(ctx, req)
	}

	format := req.Format
	if format == "" {
		format = "mp3"
	}
	return &TTSResponse{
		AudioData: []byte("audio:" + req.Text),
		Format:    format,
	}, nil
}

func (s *StubTTSProvider) Close() error {
	return nil
}

// Calls returns a copy of the recorded requests
func (s *StubTTSProvider) Calls() []TTSRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TTSRequest(nil), s.calls...)
}
