package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/visionvoice/visionvoice/internal/provider"
	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/internal/tts"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// AudioHandler handles track generation and status API endpoints
type AudioHandler struct {
	orch *tts.Orchestrator
	repo track.Repository
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(orch *tts.Orchestrator, repo track.Repository) *AudioHandler {
	return &AudioHandler{
		orch: orch,
		repo: repo,
	}
}

// generateResponse is the response shape of a generation call
type generateResponse struct {
	Results []types.SectionResult   `json:"results"`
	BatchID string                  `json:"batchId,omitempty"`
	Report  *types.GenerationReport `json:"report"`
}

// Handle routes generation POSTs and track-status GETs
func (h *AudioHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.Generate(w, r)
	case http.MethodGet:
		h.ListTracks(w, r)
	default:
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Generate handles POST /api/v1/audio/generate
func (h *AudioHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.OwnerID == "" || req.DocumentID == "" || len(req.Sections) == 0 {
		respondError(w, "ownerId, documentId and sections are required", http.StatusBadRequest)
		return
	}
	for _, s := range req.Sections {
		if s.SectionKey == "" {
			respondError(w, "every section needs a sectionKey", http.StatusBadRequest)
			return
		}
	}
	if req.VoiceID != "" {
		if _, err := provider.ResolveVoice(req.VoiceID); err != nil {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	log.Printf("[API] Generation request: document=%s voice=%s variant=%s sections=%d dry_run=%v",
		req.DocumentID, req.VoiceID, req.Variant, len(req.Sections), req.DryRun)

	report, err := h.orch.Generate(r.Context(), &req)
	if err != nil {
		log.Printf("[API] Generation error: %v", err)
		if report == nil {
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// Partial results from an aborted batch are still returned, with
		// the error alongside them.
		respondJSON(w, map[string]interface{}{
			"results": report.Results,
			"batchId": req.BatchID,
			"report":  report,
			"error":   err.Error(),
		}, http.StatusInternalServerError)
		return
	}

	respondJSON(w, generateResponse{
		Results: report.Results,
		BatchID: req.BatchID,
		Report:  report,
	}, http.StatusOK)
}

// trackStatus is the per-track view of the status listing
type trackStatus struct {
	ID           string `json:"id"`
	SectionKey   string `json:"sectionKey"`
	Status       string `json:"status"`
	MixStatus    string `json:"mixStatus"`
	AudioURL     string `json:"audioUrl,omitempty"`
	MixedURL     string `json:"mixedUrl,omitempty"`
	VoiceID      string `json:"voiceId"`
	ContentHash  string `json:"contentHash"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ListTracks handles GET /api/v1/audio/tracks?documentId=...
func (h *AudioHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		respondError(w, "documentId is required", http.StatusBadRequest)
		return
	}

	tracks, err := h.repo.ListTracks(r.Context(), documentID)
	if err != nil {
		log.Printf("[API] Failed to list tracks for %s: %v", documentID, err)
		respondError(w, "Failed to list tracks", http.StatusInternalServerError)
		return
	}

	statuses := make([]trackStatus, 0, len(tracks))
	for _, t := range tracks {
		statuses = append(statuses, trackStatus{
			ID:           t.ID,
			SectionKey:   t.SectionKey,
			Status:       string(t.Status),
			MixStatus:    string(t.MixStatus),
			AudioURL:     t.AudioURL,
			MixedURL:     t.MixedURL,
			VoiceID:      t.VoiceID,
			ContentHash:  t.ContentHash,
			ErrorMessage: t.ErrorMessage,
		})
	}

	respondJSON(w, map[string]interface{}{
		"tracks": statuses,
		"count":  len(statuses),
	}, http.StatusOK)
}

// BatchHandler handles batch progress polling
type BatchHandler struct {
	repo track.Repository
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(repo track.Repository) *BatchHandler {
	return &BatchHandler{repo: repo}
}

// GetBatch handles GET /api/v1/batches/{id}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batchID := r.PathValue("id")
	if batchID == "" {
		respondError(w, "batch id is required", http.StatusBadRequest)
		return
	}

	batch, err := h.repo.GetBatch(r.Context(), batchID)
	if err != nil {
		respondError(w, "Batch not found", http.StatusNotFound)
		return
	}

	respondJSON(w, batch, http.StatusOK)
}

// CreateBatch handles POST /api/v1/batches, allocating a pollable batch
// record ahead of a generation call.
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Total int `json:"total"`
	}
	// An empty body is fine; the batch starts with zero pending tracks
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	batch := &types.GenerationBatch{
		Status:        types.BatchPending,
		TracksPending: body.Total,
	}
	if err := h.repo.SaveBatch(r.Context(), batch); err != nil {
		log.Printf("[API] Failed to create batch: %v", err)
		respondError(w, "Failed to create batch", http.StatusInternalServerError)
		return
	}

	respondJSON(w, batch, http.StatusCreated)
}
