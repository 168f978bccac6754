package tts

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/visionvoice/visionvoice/internal/mix"
	"github.com/visionvoice/visionvoice/internal/provider"
	"github.com/visionvoice/visionvoice/internal/storage"
	"github.com/visionvoice/visionvoice/internal/textproc"
	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// SpeechSynthesizer produces the complete audio payload for one piece of
// text, handling chunking and provider routing internally.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, job provider.SynthesisJob) (*provider.SynthesisResult, error)
}

// Orchestrator drives track generation: per-section dedup, synthesis or
// mix-source lookup, blob upload, datastore persistence, batch progress,
// and the asynchronous mix handoff.
type Orchestrator struct {
	repo      track.Repository
	resolver  *AudioSetResolver
	synth     SpeechSynthesizer
	store     storage.Adapter
	mixer     *mix.Trigger
	bucket    string
	cdnPrefix string

	bg sync.WaitGroup
}

// NewOrchestrator creates an orchestrator. mixer may be nil when mixing is
// disabled; mix variants then complete their datastore work but no job is
// dispatched.
func NewOrchestrator(repo track.Repository, synth SpeechSynthesizer, store storage.Adapter, mixer *mix.Trigger, bucket, cdnPrefix string) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		resolver:  NewAudioSetResolver(repo),
		synth:     synth,
		store:     store,
		mixer:     mixer,
		bucket:    bucket,
		cdnPrefix: cdnPrefix,
	}
}

// Wait blocks until background tasks (mix triggers, full-track assembly)
// have finished. Used during shutdown and in tests.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}

// Generate processes the request's sections strictly in order. Each section
// is fully persisted (completed or failed) before the next begins. The
// returned report always carries every result produced so far, including
// when a premium-voice failure aborts the batch early; in that case the
// report is returned alongside the error.
func (o *Orchestrator) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationReport, error) {
	if req.VoiceID == "" {
		req.VoiceID = "alloy"
	}
	if req.Format == "" {
		req.Format = "mp3"
	}
	if req.Variant == "" {
		req.Variant = types.VariantStandard
	}
	if len(req.Sections) == 0 {
		return nil, fmt.Errorf("no sections to generate")
	}

	report := &types.GenerationReport{
		SectionCharacters: make(map[string]int),
		DryRun:            req.DryRun,
	}

	mode := "live"
	if req.DryRun {
		mode = "dry run"
	}
	log.Printf("[Generate] Starting %s generation: document=%s voice=%s variant=%s sections=%d",
		mode, req.DocumentID, req.VoiceID, req.Variant, len(req.Sections))

	set, err := o.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	progress := newBatchProgress(o.repo, req.BatchID, len(req.Sections))
	progress.start(ctx, set.ID)

	premium := provider.IsPremium(req.VoiceID)

	for _, section := range req.Sections {
		if err := ctx.Err(); err != nil {
			progress.finalize(ctx, report)
			return report, fmt.Errorf("generation cancelled before %s: %w", section.SectionKey, err)
		}

		log.Printf("[Section] Processing %s", section.SectionKey)
		result, sectionErr := o.processSection(ctx, req, set, section, report)
		report.Results = append(report.Results, result)
		progress.update(ctx, report)

		// Premium voices fail fast: a failed section aborts the remaining
		// sections so the caller never gets a half-generated premium batch.
		// There is no provider fallback in either direction.
		if sectionErr != nil && premium {
			log.Printf("[Generate] Premium voice failed for %s, aborting remaining sections", section.SectionKey)
			progress.finalize(ctx, report)
			return report, fmt.Errorf("premium voice generation failed for %s: %w", section.SectionKey, sectionErr)
		}
	}

	progress.finalize(ctx, report)

	log.Printf("[Generate] Finished: sections=%d completed=%d failed=%d characters=%d estimated_cost_cents=%d",
		len(req.Sections), report.Completed(), report.Failed(), report.TotalCharacters, report.EstimatedCostCents)

	o.maybeAssembleFullTrack(req, set, report)

	return report, nil
}

// processSection runs the per-section state machine. The returned error is
// non-nil only for failures eligible for the premium fail-fast policy; the
// SectionResult always reflects the outcome either way.
func (o *Orchestrator) processSection(ctx context.Context, req *types.GenerationRequest, set *types.AudioSet, section types.SectionInput, report *types.GenerationReport) (types.SectionResult, error) {
	contentHash := textproc.Fingerprint(section.Text)

	existing, err := o.repo.FindTrack(ctx, req.DocumentID, set.ID, section.SectionKey)
	if err != nil {
		return failedResult(section.SectionKey, err), nil
	}

	// Dedup hit: same content, already completed, not forced
	if existing != nil && existing.ContentHash == contentHash && existing.Status == types.TrackCompleted && !req.ForceRegenerate {
		log.Printf("[Track] Skipping %s: existing completed track (voice: %s)", section.SectionKey, existing.VoiceID)
		return types.SectionResult{
			SectionKey: section.SectionKey,
			Status:     types.OutcomeSkipped,
			AudioURL:   existing.AudioURL,
			StorageKey: existing.StorageKey,
		}, nil
	}

	rec := existing
	if rec != nil {
		// Reuse the row: regeneration keeps the track's identity
		log.Printf("[Track] Regenerating %s: reusing record %s", section.SectionKey, rec.ID)
	} else {
		log.Printf("[Track] Creating new track record for %s", section.SectionKey)
		rec = &types.AudioTrack{
			OwnerID:    req.OwnerID,
			DocumentID: req.DocumentID,
			AudioSetID: set.ID,
			SectionKey: section.SectionKey,
		}
	}
	rec.ContentHash = contentHash
	rec.Text = section.Text
	rec.VoiceID = req.VoiceID
	rec.Bucket = o.bucket
	rec.Status = types.TrackProcessing
	rec.ErrorMessage = ""

	if err := o.repo.SaveTrack(ctx, rec); err != nil {
		return failedResult(section.SectionKey, err), nil
	}

	result, err := o.produceAudio(ctx, req, section, rec, report)
	if err != nil {
		log.Printf("[Track] Generation failed for %s: %v", section.SectionKey, err)
		rec.Status = types.TrackFailed
		rec.ErrorMessage = err.Error()
		if saveErr := o.repo.SaveTrack(ctx, rec); saveErr != nil {
			log.Printf("[Track] Failed to persist failure for %s: %v", section.SectionKey, saveErr)
		}
		return failedResult(section.SectionKey, err), err
	}

	return result, nil
}

// produceAudio either synthesizes new voice audio (standard variant) or
// resolves the completed voice-only track a mix variant must reuse. Mix
// variants never trigger synthesis.
func (o *Orchestrator) produceAudio(ctx context.Context, req *types.GenerationRequest, section types.SectionInput, rec *types.AudioTrack, report *types.GenerationReport) (types.SectionResult, error) {
	ext := "mp3"
	if req.Format == "wav" {
		ext = "wav"
	}

	var audioURL, storageKey string

	if req.Variant != types.VariantStandard {
		std, err := o.repo.FindCompletedStandardTrack(ctx, req.DocumentID, section.SectionKey, req.VoiceID)
		if err != nil {
			return types.SectionResult{}, err
		}
		if std == nil || std.AudioURL == "" {
			return types.SectionResult{}, fmt.Errorf(
				"%w: mix variant %q requires a completed voice-only track for %s with voice %q; generate voice-only tracks first",
				ErrPrerequisiteMissing, req.Variant, section.SectionKey, req.VoiceID)
		}

		log.Printf("[Mixing] Found existing voice track for %s (voice: %s)", section.SectionKey, std.VoiceID)
		audioURL = std.AudioURL
		storageKey = std.StorageKey
		if storageKey == "" {
			storageKey = strings.TrimPrefix(audioURL, strings.TrimSuffix(o.cdnPrefix, "/")+"/")
		}
	} else {
		processed := textproc.PaceForVariant(section.Text, req.Variant)

		res, err := o.synth.Synthesize(ctx, provider.SynthesisJob{
			OwnerID: req.OwnerID,
			VoiceID: req.VoiceID,
			Format:  req.Format,
			Text:    processed,
			DryRun:  req.DryRun,
		})
		if err != nil {
			return types.SectionResult{}, err
		}

		report.TotalCharacters += res.Characters
		report.SectionCharacters[section.SectionKey] = res.Characters
		report.EstimatedCostCents += res.CostCents

		storageKey = o.storageKey(req.OwnerID, req.DocumentID, section.SectionKey, rec.ContentHash, ext)
		if !req.DryRun {
			opts := storage.PutOptions{
				ContentType:  storage.ContentTypeForFormat(req.Format),
				CacheControl: "max-age=31536000",
			}
			if err := o.store.Put(ctx, storageKey, bytes.NewReader(res.AudioData), opts); err != nil {
				return types.SectionResult{}, fmt.Errorf("failed to upload audio for %s: %w", section.SectionKey, err)
			}
			log.Printf("[Storage] Uploaded %s (%d bytes)", storageKey, len(res.AudioData))
		}
		audioURL = storage.PublicURL(o.cdnPrefix, storageKey)
	}

	rec.StorageKey = storageKey
	rec.AudioURL = audioURL
	rec.Status = types.TrackCompleted
	if req.Variant != types.VariantStandard {
		rec.MixStatus = types.MixPending
	} else {
		rec.MixStatus = types.MixNotRequired
	}

	if !req.DryRun {
		if err := o.repo.SaveTrack(ctx, rec); err != nil {
			return types.SectionResult{}, fmt.Errorf("failed to persist track for %s: %w", section.SectionKey, err)
		}

		if req.Variant != types.VariantStandard {
			outputKey := strings.TrimSuffix(storageKey, "."+ext) + "-mixed." + ext
			o.triggerMixAsync(rec.ID, audioURL, req.Variant, outputKey)
		}
	}

	return types.SectionResult{
		SectionKey: section.SectionKey,
		Status:     types.OutcomeGenerated,
		AudioURL:   audioURL,
		StorageKey: storageKey,
	}, nil
}

// storageKey derives a fresh blob key. The timestamp segment cache-busts
// regenerated audio; dedup runs on the stored content hash, never the key.
func (o *Orchestrator) storageKey(ownerID, documentID, sectionKey, contentHash, ext string) string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return fmt.Sprintf("user-uploads/%s/visions/audio/%s/%s-%s-%s.%s",
		ownerID, documentID, sectionKey, contentHash[:12], timestamp, ext)
}

// triggerMixAsync dispatches the mix job without blocking the section loop.
// Trigger failures are logged and never change the track's completed status.
func (o *Orchestrator) triggerMixAsync(trackID, voiceURL, variant, outputKey string) {
	if o.mixer == nil {
		log.Printf("[Mixing] Mixing disabled, skipping trigger for track %s", trackID)
		return
	}

	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := o.mixer.TriggerMix(ctx, trackID, voiceURL, variant, outputKey); err != nil {
			log.Printf("[Mixing] Failed to trigger mixing for track %s: %v", trackID, err)
		}
	}()
}

func failedResult(sectionKey string, err error) types.SectionResult {
	return types.SectionResult{
		SectionKey: sectionKey,
		Status:     types.OutcomeFailed,
		Error:      err.Error(),
	}
}
