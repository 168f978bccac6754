package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/visionvoice/visionvoice/internal/provider"
	"github.com/visionvoice/visionvoice/internal/tts"
)

// VoicesHandler handles the voice catalog and preview endpoints
type VoicesHandler struct {
	orch *tts.Orchestrator
}

// NewVoicesHandler creates a new voices handler
func NewVoicesHandler(orch *tts.Orchestrator) *VoicesHandler {
	return &VoicesHandler{orch: orch}
}

// ListVoices handles GET /api/v1/voices. The catalog is static: nine native
// voices plus the curated premium registry. Cloned voices are caller-supplied
// and never listed.
func (h *VoicesHandler) ListVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	voices := append(provider.NativeVoices(), provider.PremiumVoices()...)

	respondJSON(w, map[string]interface{}{
		"voices": voices,
		"count":  len(voices),
	}, http.StatusOK)
}

// previewRequest is the inbound shape of a preview call
type previewRequest struct {
	VoiceID string `json:"voiceId"`
	Format  string `json:"format"`
}

// Preview handles POST /api/v1/voices/preview, returning raw audio bytes
func (h *VoicesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.VoiceID == "" {
		respondError(w, "voiceId is required", http.StatusBadRequest)
		return
	}

	audio, format, err := h.orch.Preview(r.Context(), req.VoiceID, req.Format)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownVoiceProvider) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[API] Preview failed for voice %s: %v", req.VoiceID, err)
		respondError(w, "Preview synthesis failed", http.StatusBadGateway)
		return
	}

	contentType := "audio/mpeg"
	if format == "wav" {
		contentType = "audio/wav"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// Reference handles GET /api/v1/voices/reference?voiceId=..., returning the
// public URL of the cached per-voice reference clip.
func (h *VoicesHandler) Reference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	voiceID := r.URL.Query().Get("voiceId")
	if voiceID == "" {
		respondError(w, "voiceId is required", http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")

	url, key, err := h.orch.GetOrCreateVoiceReference(r.Context(), voiceID, format)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownVoiceProvider) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[API] Voice reference failed for %s: %v", voiceID, err)
		respondError(w, "Voice reference generation failed", http.StatusBadGateway)
		return
	}

	respondJSON(w, map[string]string{"url": url, "key": key}, http.StatusOK)
}
