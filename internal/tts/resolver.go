package tts

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// AudioSetResolver finds or creates the audio set a generation call targets,
// keyed by (document, variant, voice).
type AudioSetResolver struct {
	repo track.Repository
}

// NewAudioSetResolver creates a resolver over the given repository
func NewAudioSetResolver(repo track.Repository) *AudioSetResolver {
	return &AudioSetResolver{repo: repo}
}

// variantDescription returns the display description for a variant
func variantDescription(variant string) string {
	switch variant {
	case types.VariantStandard:
		return "Voice only narration"
	case types.VariantSleep:
		return "10% voice, 90% background"
	case types.VariantEnergy:
		return "80% voice, 20% background"
	case types.VariantMeditation:
		return "50% voice, 50% background"
	default:
		return "50% voice, 50% background"
	}
}

// Resolve returns the audio set for the request. An explicit set ID is used
// verbatim; otherwise an existing set matching (document, variant, voice) is
// reused, and a new set is created only when none exists. Repeated calls for
// the same voice and variant accumulate into one set.
func (r *AudioSetResolver) Resolve(ctx context.Context, req *types.GenerationRequest) (*types.AudioSet, error) {
	variant := req.Variant

	if req.AudioSetID != "" {
		log.Printf("[AudioSet] Using specified audio set: %s", req.AudioSetID)
		set, err := r.repo.GetSet(ctx, req.DocumentID, req.AudioSetID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve audio set %s: %w", req.AudioSetID, err)
		}
		return set, nil
	}

	existing, err := r.repo.FindSet(ctx, req.DocumentID, variant, req.VoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up audio set: %w", err)
	}
	if existing != nil {
		log.Printf("[AudioSet] Reusing existing audio set: %s (voice: %s, variant: %s)", existing.ID, existing.VoiceID, existing.Variant)
		return existing, nil
	}

	name := req.AudioSetName
	if name == "" {
		name = fmt.Sprintf("%s Version", strings.ToUpper(variant[:1])+variant[1:])
	}

	set := &types.AudioSet{
		DocumentID:  req.DocumentID,
		OwnerID:     req.OwnerID,
		Variant:     variant,
		VoiceID:     req.VoiceID,
		Name:        name,
		Description: variantDescription(variant),
	}
	if err := r.repo.SaveSet(ctx, set); err != nil {
		return nil, fmt.Errorf("failed to create audio set: %w", err)
	}

	log.Printf("[AudioSet] Created audio set: %s (voice: %s, variant: %s)", set.ID, set.VoiceID, set.Variant)
	return set, nil
}
