package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownVoiceProvider is returned when a voice ID maps to no provider
var ErrUnknownVoiceProvider = errors.New("unknown voice provider")

// VoiceSpec is the resolved routing decision for a voice ID: which provider
// to call, the raw voice identifier that provider expects, and the model.
type VoiceSpec struct {
	Provider string // ProviderOpenAI or ProviderElevenLabs
	Voice    string // Provider-native voice identifier
	ModelID  string // Provider-native model identifier
}

// Voice describes one catalog entry exposed by the voices endpoint
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BrandName   string `json:"brandName,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Provider    string `json:"provider"`
	Premium     bool   `json:"premium"`
	Description string `json:"description,omitempty"`
}

const elevenLabsDefaultModel = "eleven_turbo_v2_5"

// nativeVoices are the baseline voices synthesized by the OpenAI provider
var nativeVoices = []string{
	"alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer",
}

// premiumVoice maps a catalog-facing premium voice ID to its provider identity
type premiumVoice struct {
	Name      string
	BrandName string
	Gender    string
	VoiceID   string
	ModelID   string
}

// premiumRegistry maps "elevenlabs-*" catalog IDs to ElevenLabs voice IDs.
// The registry is static: premium voices are curated, not discovered.
var premiumRegistry = map[string]premiumVoice{
	"elevenlabs-rachel":  {Name: "Rachel", BrandName: "Natural & Calm", Gender: "female", VoiceID: "21m00Tcm4TlvDq8ikWAM", ModelID: elevenLabsDefaultModel},
	"elevenlabs-clyde":   {Name: "Clyde", BrandName: "Warm & Professional", Gender: "male", VoiceID: "2EiwWnXFnvU5JabPnv8n", ModelID: elevenLabsDefaultModel},
	"elevenlabs-domi":    {Name: "Domi", BrandName: "Confident & Strong", Gender: "female", VoiceID: "AZnzlk1XvdvUeBnXmlld", ModelID: elevenLabsDefaultModel},
	"elevenlabs-dave":    {Name: "Dave", BrandName: "Conversational & Friendly", Gender: "male", VoiceID: "CYw3kZ02Hs0563khs1Fj", ModelID: elevenLabsDefaultModel},
	"elevenlabs-fin":     {Name: "Fin", BrandName: "Smooth & Clear", Gender: "male", VoiceID: "D38z5RcWu1voky8WS1ja", ModelID: elevenLabsDefaultModel},
	"elevenlabs-sarah":   {Name: "Sarah", BrandName: "Gentle & Soothing", Gender: "female", VoiceID: "EXAVITQu4vr4xnSDxMaL", ModelID: elevenLabsDefaultModel},
	"elevenlabs-antoni":  {Name: "Antoni", BrandName: "Expressive & Energetic", Gender: "male", VoiceID: "ErXwobaYiN019PkySvjV", ModelID: elevenLabsDefaultModel},
	"elevenlabs-thomas":  {Name: "Thomas", BrandName: "Authoritative & Deep", Gender: "male", VoiceID: "GBv7mTt0atIp3Br8iCZE", ModelID: elevenLabsDefaultModel},
	"elevenlabs-charlie": {Name: "Charlie", BrandName: "Bright & Casual", Gender: "male", VoiceID: "IKne3meq5aSn9XLyUdCD", ModelID: elevenLabsDefaultModel},
	"elevenlabs-emily":   {Name: "Emily", BrandName: "Warm & Engaging", Gender: "female", VoiceID: "LcfcDJNUP1GQjkzn1xUU", ModelID: elevenLabsDefaultModel},
}

// ResolveVoice maps a caller-facing voice ID to the provider that can
// synthesize it. Resolution order: cloned voices ("clone-<raw id>") and the
// premium registry both route to ElevenLabs; everything else must be one of
// the native voices.
func ResolveVoice(voiceID string) (VoiceSpec, error) {
	if raw, ok := strings.CutPrefix(voiceID, "clone-"); ok {
		if raw == "" {
			return VoiceSpec{}, fmt.Errorf("%w: empty cloned voice id", ErrUnknownVoiceProvider)
		}
		return VoiceSpec{Provider: ProviderElevenLabs, Voice: raw, ModelID: elevenLabsDefaultModel}, nil
	}

	if pv, ok := premiumRegistry[voiceID]; ok {
		return VoiceSpec{Provider: ProviderElevenLabs, Voice: pv.VoiceID, ModelID: pv.ModelID}, nil
	}

	for _, native := range nativeVoices {
		if voiceID == native {
			return VoiceSpec{Provider: ProviderOpenAI, Voice: voiceID}, nil
		}
	}

	return VoiceSpec{}, fmt.Errorf("%w: %q", ErrUnknownVoiceProvider, voiceID)
}

// IsPremium reports whether the voice ID routes to the premium provider
func IsPremium(voiceID string) bool {
	spec, err := ResolveVoice(voiceID)
	return err == nil && spec.Provider == ProviderElevenLabs
}

// NativeVoices returns the catalog entries for the baseline voices
func NativeVoices() []Voice {
	voices := make([]Voice, 0, len(nativeVoices))
	for _, id := range nativeVoices {
		voices = append(voices, Voice{
			ID:       id,
			Name:     strings.ToUpper(id[:1]) + id[1:],
			Provider: ProviderOpenAI,
		})
	}
	return voices
}

// PremiumVoices returns the catalog entries for the premium registry
func PremiumVoices() []Voice {
	ids := []string{
		"elevenlabs-rachel", "elevenlabs-clyde", "elevenlabs-domi",
		"elevenlabs-dave", "elevenlabs-fin", "elevenlabs-sarah",
		"elevenlabs-antoni", "elevenlabs-thomas", "elevenlabs-charlie",
		"elevenlabs-emily",
	}
	voices := make([]Voice, 0, len(ids))
	for _, id := range ids {
		pv := premiumRegistry[id]
		voices = append(voices, Voice{
			ID:        id,
			Name:      pv.Name,
			BrandName: pv.BrandName,
			Gender:    pv.Gender,
			Provider:  ProviderElevenLabs,
			Premium:   true,
		})
	}
	return voices
}
