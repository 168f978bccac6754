package tts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/visionvoice/visionvoice/internal/provider"
	"github.com/visionvoice/visionvoice/internal/storage"
	"github.com/visionvoice/visionvoice/internal/usage"
)

// previewSample is the fixed text synthesized for interactive voice previews
const previewSample = "We are doing this! We're taking the initiative to have a vibration transformation in our life! The infinite part of our consciousness is always there, always excited, and elated when we acknowledge it and decide to be all that we've become. This is a process of discovery. We know the vibrational signature of our most satisfying life already exists. Our intention now is to tap into it and allow ourselves an unabridged look into what we've already become."

// referenceText is the longer passage behind cached per-voice reference clips
const referenceText = "This vision serves as my magnet, attracting the people, ideas, resources, strategies, events, and circumstances that orchestrate its beautiful unfolding. I hereby give the Universe full permission to open all doors leading to the joyful experience of this or something even better. Thank you in advance for this fun and satisfying journey of unlimited creation. I am truly grateful for the opportunity to be here and experience ourselves as the conscious creators of the life I choose."

// Preview synthesizes the fixed sample text with the given voice. Usage is
// attributed to the system owner, not an end user.
func (o *Orchestrator) Preview(ctx context.Context, voiceID, format string) ([]byte, string, error) {
	if format == "" {
		format = "mp3"
	}

	res, err := o.synth.Synthesize(ctx, provider.SynthesisJob{
		OwnerID: usage.SystemOwnerID,
		VoiceID: voiceID,
		Format:  format,
		Text:    previewSample,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to synthesize preview: %w", err)
	}

	return res.AudioData, res.Format, nil
}

// GetOrCreateVoiceReference returns the public URL and key of the cached
// reference clip for a voice, synthesizing and uploading it on first use.
func (o *Orchestrator) GetOrCreateVoiceReference(ctx context.Context, voiceID, format string) (url, key string, err error) {
	if format == "" {
		format = "mp3"
	}
	ext := "mp3"
	if format == "wav" {
		ext = "wav"
	}

	key = fmt.Sprintf("site-assets/voice-previews/%s.%s", voiceID, ext)

	exists, err := o.store.Exists(ctx, key)
	if err != nil {
		return "", "", fmt.Errorf("failed to check voice reference: %w", err)
	}
	if exists {
		return storage.PublicURL(o.cdnPrefix, key), key, nil
	}

	res, err := o.synth.Synthesize(ctx, provider.SynthesisJob{
		OwnerID: usage.SystemOwnerID,
		VoiceID: voiceID,
		Format:  format,
		Text:    referenceText,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to synthesize voice reference: %w", err)
	}

	opts := storage.PutOptions{
		ContentType:  storage.ContentTypeForFormat(format),
		CacheControl: "public, max-age=31536000",
	}
	if err := o.store.Put(ctx, key, bytes.NewReader(res.AudioData), opts); err != nil {
		return "", "", fmt.Errorf("failed to upload voice reference: %w", err)
	}

	return storage.PublicURL(o.cdnPrefix, key), key, nil
}
