package provider

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/visionvoice/visionvoice/internal/textproc"
	"github.com/visionvoice/visionvoice/internal/usage"
)

// SynthesisJob is one text-to-audio request routed through voice resolution
type SynthesisJob struct {
	OwnerID string // Usage attribution; usage.SystemOwnerID for platform-owned synthesis
	VoiceID string // Caller-facing voice ID, resolved before dispatch
	Format  string // "mp3" or "wav"
	Text    string // Already normalized and variant-paced
	DryRun  bool   // Count characters and route, but make no provider calls
}

// SynthesisResult is the concatenated audio plus accounting for one job
type SynthesisResult struct {
	AudioData  []byte
	Format     string
	Provider   string
	Characters int
	CostCents  int
	Chunks     int
}

// Synthesizer routes synthesis jobs to the provider a voice belongs to,
// splitting oversized text into chunks and concatenating the audio in order.
type Synthesizer struct {
	providers map[string]TTSProvider
	recorder  usage.Recorder
	chunkSize int
}

// NewSynthesizer creates a synthesizer over the given providers. A missing
// provider is only an error when a job actually routes to it.
func NewSynthesizer(providers map[string]TTSProvider, recorder usage.Recorder) *Synthesizer {
	return &Synthesizer{
		providers: providers,
		recorder:  recorder,
		chunkSize: textproc.DefaultChunkSize,
	}
}

// Synthesize runs one job: resolve the voice, chunk the text, call the
// provider once per chunk in order, and concatenate the audio. Usage is
// recorded per successful provider call. Dry runs perform resolution,
// chunking, and accounting with no provider calls and no usage records.
func (s *Synthesizer) Synthesize(ctx context.Context, job SynthesisJob) (*SynthesisResult, error) {
	spec, err := ResolveVoice(job.VoiceID)
	if err != nil {
		return nil, err
	}

	chunks, err := textproc.Chunk(job.Text, s.chunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk text: %w", err)
	}

	characters := 0
	for _, chunk := range chunks {
		characters += len(chunk)
	}

	result := &SynthesisResult{
		Format:     job.Format,
		Provider:   spec.Provider,
		Characters: characters,
		CostCents:  usage.CostCents(spec.Provider, characters),
		Chunks:     len(chunks),
	}

	if job.DryRun {
		log.Printf("[Synth] Dry run: voice=%s provider=%s chunks=%d chars=%d", job.VoiceID, spec.Provider, len(chunks), characters)
		return result, nil
	}

	p, ok := s.providers[spec.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s is not configured", spec.Provider)
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		resp, err := p.Synthesize(ctx, TTSRequest{
			Text:    chunk,
			VoiceID: spec.Voice,
			ModelID: spec.ModelID,
			Format:  job.Format,
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d failed: %w", i+1, len(chunks), err)
		}

		audio.Write(resp.AudioData)
		result.Format = resp.Format

		if s.recorder != nil {
			entry := usage.Entry{
				OwnerID:    job.OwnerID,
				Provider:   spec.Provider,
				Model:      spec.ModelID,
				VoiceID:    job.VoiceID,
				Characters: len(chunk),
				CostCents:  usage.CostCents(spec.Provider, len(chunk)),
				AudioBytes: len(resp.AudioData),
				RecordedAt: time.Now().UTC(),
			}
			if err := s.recorder.Record(ctx, entry); err != nil {
				// Usage recording must never fail synthesis
				log.Printf("[Synth] Failed to record usage for %s: %v", job.OwnerID, err)
			}
		}
	}

	result.AudioData = audio.Bytes()
	log.Printf("[Synth] Synthesized voice=%s provider=%s chunks=%d chars=%d audio_size=%d bytes",
		job.VoiceID, spec.Provider, len(chunks), characters, len(result.AudioData))

	return result, nil
}

// Close closes all configured providers
func (s *Synthesizer) Close() error {
	for _, p := range s.providers {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}
