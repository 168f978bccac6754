package types

import "time"

// Variant names. Standard is voice-only narration; every other variant is a
// mix profile layered on top of a completed standard track.
const (
	VariantStandard   = "standard"
	VariantSleep      = "sleep"
	VariantMeditation = "meditation"
	VariantEnergy     = "energy"
)

// TrackStatus is the lifecycle state of an audio track
type TrackStatus string

const (
	TrackProcessing TrackStatus = "processing"
	TrackCompleted  TrackStatus = "completed"
	TrackFailed     TrackStatus = "failed"
)

// MixStatus tracks the background-mixing stage of a track
type MixStatus string

const (
	MixNotRequired MixStatus = "not_required"
	MixPending     MixStatus = "pending"
	MixMixing      MixStatus = "mixing"
	MixCompleted   MixStatus = "completed"
)

// BatchStatus is the derived state of a generation batch
type BatchStatus string

const (
	BatchPending        BatchStatus = "pending"
	BatchInProgress     BatchStatus = "in_progress"
	BatchCompleted      BatchStatus = "completed"
	BatchPartialSuccess BatchStatus = "partial_success"
	BatchFailed         BatchStatus = "failed"
)

// AudioSet is a named collection of tracks sharing (document, variant, voice)
type AudioSet struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	OwnerID     string    `json:"owner_id"`
	Variant     string    `json:"variant"`
	VoiceID     string    `json:"voice_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// AudioTrack is one synthesized (or mixed) section of a document
type AudioTrack struct {
	ID           string      `json:"id"`
	OwnerID      string      `json:"owner_id"`
	DocumentID   string      `json:"document_id"`
	AudioSetID   string      `json:"audio_set_id"`
	SectionKey   string      `json:"section_key"`
	ContentHash  string      `json:"content_hash"`
	Text         string      `json:"text_content"`
	VoiceID      string      `json:"voice_id"`
	Bucket       string      `json:"storage_bucket"`
	StorageKey   string      `json:"storage_key"`
	AudioURL     string      `json:"audio_url"`
	Status       TrackStatus `json:"status"`
	MixStatus    MixStatus   `json:"mix_status"`
	MixedURL     string      `json:"mixed_url,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	DurationMs   int         `json:"duration_ms,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// GenerationBatch is the caller-pollable progress record for one
// multi-section generation request. It is a secondary index over tracks,
// never an authority for track state.
type GenerationBatch struct {
	ID              string      `json:"id"`
	AudioSetIDs     []string    `json:"audio_set_ids"`
	TracksCompleted int         `json:"tracks_completed"`
	TracksFailed    int         `json:"tracks_failed"`
	TracksPending   int         `json:"tracks_pending"`
	Status          BatchStatus `json:"status"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
}

// SectionInput is one named slice of the source document
type SectionInput struct {
	SectionKey string `json:"sectionKey"`
	Text       string `json:"text"`
}

// GenerationRequest is the inbound shape of a generation call
type GenerationRequest struct {
	OwnerID         string         `json:"ownerId"`
	DocumentID      string         `json:"documentId"`
	Sections        []SectionInput `json:"sections"`
	VoiceID         string         `json:"voiceId"`
	Format          string         `json:"format"`
	ForceRegenerate bool           `json:"forceRegenerate"`
	AudioSetID      string         `json:"audioSetId,omitempty"`
	AudioSetName    string         `json:"audioSetName,omitempty"`
	Variant         string         `json:"variant,omitempty"`
	BatchID         string         `json:"batchId,omitempty"`
	DryRun          bool           `json:"dryRun"`
}

// SectionOutcome is the per-section result status
type SectionOutcome string

const (
	OutcomeSkipped   SectionOutcome = "skipped"
	OutcomeGenerated SectionOutcome = "generated"
	OutcomeFailed    SectionOutcome = "failed"
)

// SectionResult is one entry in the ordered generation result list
type SectionResult struct {
	SectionKey string         `json:"sectionKey"`
	Status     SectionOutcome `json:"status"`
	AudioURL   string         `json:"audioUrl,omitempty"`
	StorageKey string         `json:"storageKey,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// GenerationReport carries the per-section results plus character and cost
// accounting for one generation call. Dry runs produce the same report
// (identical routing decisions) without side effects.
type GenerationReport struct {
	Results            []SectionResult `json:"results"`
	TotalCharacters    int             `json:"total_characters"`
	SectionCharacters  map[string]int  `json:"section_characters"`
	EstimatedCostCents int             `json:"estimated_cost_cents"`
	DryRun             bool            `json:"dry_run"`
}

// Completed counts results that ended as skipped or generated
func (r *GenerationReport) Completed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == OutcomeSkipped || res.Status == OutcomeGenerated {
			n++
		}
	}
	return n
}

// Failed counts results that ended as failed
func (r *GenerationReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == OutcomeFailed {
			n++
		}
	}
	return n
}

// VariantLevels holds the voice/background volume split for a mix variant.
// Volumes are percentages and always sum to 100.
type VariantLevels struct {
	Variant     string `json:"variant"`
	VoiceVolume int    `json:"voice_volume"`
	BgVolume    int    `json:"bg_volume"`
}
