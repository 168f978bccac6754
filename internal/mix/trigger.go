package mix

import (
	"context"
	"fmt"
	"log"

	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// JobPayload is the message sent to the external audio-mixer job. Volumes
// are decimals in [0,1].
type JobPayload struct {
	VoiceURL    string  `json:"voiceUrl"`
	BgURL       string  `json:"bgUrl"`
	OutputKey   string  `json:"outputKey"`
	Variant     string  `json:"variant"`
	VoiceVolume float64 `json:"voiceVolume"`
	BgVolume    float64 `json:"bgVolume"`
	TrackID     string  `json:"trackId"`
}

// Invoker dispatches a mix job for asynchronous processing
type Invoker interface {
	Invoke(ctx context.Context, payload JobPayload) error
}

// Trigger builds mix jobs for non-standard variants and hands them to the
// invoker. The mixing itself happens outside this service.
type Trigger struct {
	repo               track.Repository
	invoker            Invoker
	backgroundTrackURL string
}

// NewTrigger creates a mix trigger
func NewTrigger(repo track.Repository, invoker Invoker, backgroundTrackURL string) *Trigger {
	return &Trigger{
		repo:               repo,
		invoker:            invoker,
		backgroundTrackURL: backgroundTrackURL,
	}
}

// fallbackLevels returns the built-in voice/background split for a variant,
// used when no stored override exists.
func fallbackLevels(variant string) (voice, bg float64) {
	switch variant {
	case types.VariantSleep:
		return 0.3, 0.7
	case types.VariantMeditation:
		return 0.5, 0.5
	default:
		return 0.8, 0.2
	}
}

// ResolveLevels returns the voice/background volumes for a variant as
// decimals. Stored percentage overrides win; lookup failures fall back to
// the built-in defaults.
func (t *Trigger) ResolveLevels(ctx context.Context, variant string) (voice, bg float64) {
	levels, err := t.repo.GetVariantLevels(ctx, variant)
	if err != nil {
		log.Printf("[Mixing] Failed to load levels for variant %s, using defaults: %v", variant, err)
		return fallbackLevels(variant)
	}
	if levels == nil {
		return fallbackLevels(variant)
	}
	return float64(levels.VoiceVolume) / 100, float64(levels.BgVolume) / 100
}

// TriggerMix dispatches a mix job for one completed voice track. The caller
// is responsible for only triggering on non-standard variants.
func (t *Trigger) TriggerMix(ctx context.Context, trackID, voiceURL, variant, outputKey string) error {
	if t.invoker == nil {
		return fmt.Errorf("mix invoker is not configured")
	}
	if t.backgroundTrackURL == "" {
		return fmt.Errorf("no background track configured for variant %s", variant)
	}

	voiceVolume, bgVolume := t.ResolveLevels(ctx, variant)

	payload := JobPayload{
		VoiceURL:    voiceURL,
		BgURL:       t.backgroundTrackURL,
		OutputKey:   outputKey,
		Variant:     variant,
		VoiceVolume: voiceVolume,
		BgVolume:    bgVolume,
		TrackID:     trackID,
	}

	if err := t.invoker.Invoke(ctx, payload); err != nil {
		return fmt.Errorf("failed to invoke mix job: %w", err)
	}

	log.Printf("[Mixing] Triggered background mixing for track %s (%s) - volumes: %g/%g", trackID, variant, voiceVolume, bgVolume)
	return nil
}
