package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/visionvoice/visionvoice/internal/storage"
	"github.com/visionvoice/visionvoice/internal/textproc"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// FullTrackSectionKey is the section key of the combined full-document track
const FullTrackSectionKey = "full"

// maybeAssembleFullTrack kicks off combined-track assembly after a fully
// successful standard-variant run with more than one section. Assembly is
// best-effort and runs in the background; failures are logged only.
func (o *Orchestrator) maybeAssembleFullTrack(req *types.GenerationRequest, set *types.AudioSet, report *types.GenerationReport) {
	if req.DryRun || req.Variant != types.VariantStandard || len(req.Sections) <= 1 {
		return
	}
	if report.Failed() > 0 || report.Completed() != len(req.Sections) {
		return
	}

	sectionOrder := make([]string, 0, len(req.Sections))
	for _, s := range req.Sections {
		sectionOrder = append(sectionOrder, s.SectionKey)
	}

	log.Printf("[FullTrack] All voice tracks complete, assembling combined track for set %s", set.ID)

	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := o.assembleFullTrack(ctx, req, set, sectionOrder); err != nil {
			log.Printf("[FullTrack] Assembly failed for set %s: %v", set.ID, err)
		}
	}()
}

// assembleFullTrack concatenates the set's completed section tracks, in the
// order the sections were requested, into one combined track record.
func (o *Orchestrator) assembleFullTrack(ctx context.Context, req *types.GenerationRequest, set *types.AudioSet, sectionOrder []string) error {
	tracks, err := o.repo.ListSetTracks(ctx, req.DocumentID, set.ID)
	if err != nil {
		return fmt.Errorf("failed to list set tracks: %w", err)
	}

	byKey := make(map[string]*types.AudioTrack, len(tracks))
	for _, t := range tracks {
		byKey[t.SectionKey] = t
	}

	var audio bytes.Buffer
	var combinedText strings.Builder
	for _, key := range sectionOrder {
		t, ok := byKey[key]
		if !ok || t.Status != types.TrackCompleted || t.StorageKey == "" {
			return fmt.Errorf("section %s has no completed track to combine", key)
		}

		reader, err := o.store.Get(ctx, t.StorageKey)
		if err != nil {
			return fmt.Errorf("failed to read audio for %s: %w", key, err)
		}
		if _, err := io.Copy(&audio, reader); err != nil {
			reader.Close()
			return fmt.Errorf("failed to buffer audio for %s: %w", key, err)
		}
		reader.Close()
		combinedText.WriteString(t.Text)
		combinedText.WriteString(" ")
	}

	format := req.Format
	ext := "mp3"
	if format == "wav" {
		ext = "wav"
	}

	contentHash := textproc.Fingerprint(combinedText.String())
	storageKey := o.storageKey(req.OwnerID, req.DocumentID, FullTrackSectionKey, contentHash, ext)

	opts := storage.PutOptions{
		ContentType:  storage.ContentTypeForFormat(format),
		CacheControl: "max-age=31536000",
	}
	if err := o.store.Put(ctx, storageKey, bytes.NewReader(audio.Bytes()), opts); err != nil {
		return fmt.Errorf("failed to upload combined track: %w", err)
	}

	rec, err := o.repo.FindTrack(ctx, req.DocumentID, set.ID, FullTrackSectionKey)
	if err != nil {
		return fmt.Errorf("failed to look up combined track record: %w", err)
	}
	if rec == nil {
		rec = &types.AudioTrack{
			OwnerID:    req.OwnerID,
			DocumentID: req.DocumentID,
			AudioSetID: set.ID,
			SectionKey: FullTrackSectionKey,
		}
	}
	rec.ContentHash = contentHash
	rec.Text = strings.TrimSpace(combinedText.String())
	rec.VoiceID = req.VoiceID
	rec.Bucket = o.bucket
	rec.StorageKey = storageKey
	rec.AudioURL = storage.PublicURL(o.cdnPrefix, storageKey)
	rec.Status = types.TrackCompleted
	rec.MixStatus = types.MixNotRequired
	rec.ErrorMessage = ""

	if err := o.repo.SaveTrack(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist combined track: %w", err)
	}

	log.Printf("[FullTrack] Combined track complete: %s (%d bytes)", storageKey, audio.Len())
	return nil
}
