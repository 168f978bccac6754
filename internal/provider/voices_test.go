package provider

import (
	"errors"
	"testing"
)

func TestResolveVoice(t *testing.T) {
	tests := []struct {
		name         string
		voiceID      string
		wantProvider string
		wantVoice    string
		wantErr      bool
	}{
		{"native voice", "alloy", ProviderOpenAI, "alloy", false},
		{"another native voice", "shimmer", ProviderOpenAI, "shimmer", false},
		{"premium registry voice", "elevenlabs-rachel", ProviderElevenLabs, "21m00Tcm4TlvDq8ikWAM", false},
		{"cloned voice strips prefix", "clone-Xyz123AbcDef", ProviderElevenLabs, "Xyz123AbcDef", false},
		{"unknown voice", "mystery-voice", "", "", true},
		{"unregistered premium id", "elevenlabs-nobody", "", "", true},
		{"empty clone id", "clone-", "", "", true},
		{"empty voice id", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ResolveVoice(tt.voiceID)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveVoice(%q) expected error, got %+v", tt.voiceID, spec)
				}
				if !errors.Is(err, ErrUnknownVoiceProvider) {
					t.Errorf("Expected ErrUnknownVoiceProvider, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveVoice(%q) failed: %v", tt.voiceID, err)
			}
			if spec.Provider != tt.wantProvider {
				t.Errorf("Provider = %s, want %s", spec.Provider, tt.wantProvider)
			}
			if spec.Voice != tt.wantVoice {
				t.Errorf("Voice = %s, want %s", spec.Voice, tt.wantVoice)
			}
		})
	}
}

func TestResolveVoice_PremiumModel(t *testing.T) {
	spec, err := ResolveVoice("elevenlabs-sarah")
	if err != nil {
		t.Fatalf("ResolveVoice failed: %v", err)
	}
	if spec.ModelID != "eleven_turbo_v2_5" {
		t.Errorf("Expected premium model eleven_turbo_v2_5, got %s", spec.ModelID)
	}
}

func TestIsPremium(t *testing.T) {
	if IsPremium("alloy") {
		t.Error("Native voice must not be premium")
	}
	if !IsPremium("elevenlabs-rachel") {
		t.Error("Registry voice must be premium")
	}
	if !IsPremium("clone-abc123") {
		t.Error("Cloned voice must be premium")
	}
	if IsPremium("unknown") {
		t.Error("Unknown voice must not be premium")
	}
}

func TestVoiceCatalogs(t *testing.T) {
	native := NativeVoices()
	if len(native) != 9 {
		t.Errorf("Expected 9 native voices, got %d", len(native))
	}
	for _, v := range native {
		if v.Premium {
			t.Errorf("Native voice %s must not be flagged premium", v.ID)
		}
		if v.Provider != ProviderOpenAI {
			t.Errorf("Native voice %s has provider %s", v.ID, v.Provider)
		}
	}

	premium := PremiumVoices()
	if len(premium) != 10 {
		t.Errorf("Expected 10 premium voices, got %d", len(premium))
	}
	for _, v := range premium {
		if !v.Premium {
			t.Errorf("Premium voice %s must be flagged premium", v.ID)
		}
		if _, err := ResolveVoice(v.ID); err != nil {
			t.Errorf("Catalog voice %s must resolve: %v", v.ID, err)
		}
	}
}
