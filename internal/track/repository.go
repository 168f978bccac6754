package track

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/visionvoice/visionvoice/internal/storage"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// Repository handles audio set, track, batch, and mix-level persistence.
// Find* methods return (nil, nil) when no record matches; Get* methods treat
// a missing record as an error.
type Repository interface {
	// FindSet looks up an audio set by its natural key
	FindSet(ctx context.Context, documentID, variant, voiceID string) (*types.AudioSet, error)

	// GetSet retrieves an audio set by ID
	GetSet(ctx context.Context, documentID, setID string) (*types.AudioSet, error)

	// SaveSet stores an audio set
	SaveSet(ctx context.Context, set *types.AudioSet) error

	// FindTrack looks up a track within a set by section key
	FindTrack(ctx context.Context, documentID, setID, sectionKey string) (*types.AudioTrack, error)

	// FindCompletedStandardTrack looks for a completed voice-only track for
	// the given document section and voice, across standard-variant sets
	FindCompletedStandardTrack(ctx context.Context, documentID, sectionKey, voiceID string) (*types.AudioTrack, error)

	// SaveTrack upserts a track at its natural key (set + section)
	SaveTrack(ctx context.Context, track *types.AudioTrack) error

	// ListTracks returns all tracks for a document across its sets
	ListTracks(ctx context.Context, documentID string) ([]*types.AudioTrack, error)

	// ListSetTracks returns all tracks belonging to one set
	ListSetTracks(ctx context.Context, documentID, setID string) ([]*types.AudioTrack, error)

	// GetBatch retrieves a generation batch by ID
	GetBatch(ctx context.Context, batchID string) (*types.GenerationBatch, error)

	// SaveBatch stores a generation batch
	SaveBatch(ctx context.Context, batch *types.GenerationBatch) error

	// GetVariantLevels returns the stored mix levels for a variant, or
	// (nil, nil) when the variant has no stored override
	GetVariantLevels(ctx context.Context, variant string) (*types.VariantLevels, error)

	// SaveVariantLevels stores mix levels for a variant
	SaveVariantLevels(ctx context.Context, levels *types.VariantLevels) error
}

// StorageRepository implements Repository using a storage adapter, one JSON
// object per record.
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a new track repository
func NewRepository(storageAdapter storage.Adapter) Repository {
	return &StorageRepository{
		storage: storageAdapter,
	}
}

// NewID returns a fresh record identifier
func NewID() string {
	return uuid.New().String()
}

func setKey(documentID, setID string) string {
	return path.Join("visions", documentID, "sets", fmt.Sprintf("%s.json", setID))
}

func trackKey(documentID, setID, sectionKey string) string {
	return path.Join("visions", documentID, "sets", setID, "tracks", fmt.Sprintf("%s.json", sectionKey))
}

func batchKey(batchID string) string {
	return path.Join("batches", fmt.Sprintf("%s.json", batchID))
}

func variantKey(variant string) string {
	return path.Join("variants", fmt.Sprintf("%s.json", variant))
}

// FindSet looks up an audio set by (document, variant, voice)
func (r *StorageRepository) FindSet(ctx context.Context, documentID, variant, voiceID string) (*types.AudioSet, error) {
	prefix := path.Join("visions", documentID, "sets") + "/"
	keys, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list audio sets: %w", err)
	}

	for _, key := range keys {
		// Track records live under sets/{id}/tracks/; set records are
		// direct children of sets/.
		if path.Dir(key) != path.Join("visions", documentID, "sets") {
			continue
		}

		set, err := r.readSet(ctx, key)
		if err != nil {
			continue
		}
		if set.Variant == variant && set.VoiceID == voiceID {
			return set, nil
		}
	}

	return nil, nil
}

// GetSet retrieves an audio set by ID
func (r *StorageRepository) GetSet(ctx context.Context, documentID, setID string) (*types.AudioSet, error) {
	set, err := r.readSet(ctx, setKey(documentID, setID))
	if err != nil {
		return nil, fmt.Errorf("failed to get audio set %s: %w", setID, err)
	}
	return set, nil
}

func (r *StorageRepository) readSet(ctx context.Context, key string) (*types.AudioSet, error) {
	reader, err := r.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var set types.AudioSet
	if err := json.NewDecoder(reader).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode audio set: %w", err)
	}
	return &set, nil
}

// SaveSet stores an audio set
func (r *StorageRepository) SaveSet(ctx context.Context, set *types.AudioSet) error {
	if set.ID == "" {
		set.ID = NewID()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal audio set: %w", err)
	}

	key := setKey(set.DocumentID, set.ID)
	if err := r.storage.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("failed to store audio set: %w", err)
	}
	return nil
}

// FindTrack looks up a track by its natural key
func (r *StorageRepository) FindTrack(ctx context.Context, documentID, setID, sectionKey string) (*types.AudioTrack, error) {
	key := trackKey(documentID, setID, sectionKey)
	exists, err := r.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check track existence: %w", err)
	}
	if !exists {
		return nil, nil
	}
	return r.readTrack(ctx, key)
}

// FindCompletedStandardTrack looks for a completed voice-only track matching
// (document, section, voice) across the document's standard-variant sets.
func (r *StorageRepository) FindCompletedStandardTrack(ctx context.Context, documentID, sectionKey, voiceID string) (*types.AudioTrack, error) {
	tracks, err := r.ListTracks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	for _, t := range tracks {
		if t.SectionKey != sectionKey || t.VoiceID != voiceID || t.Status != types.TrackCompleted {
			continue
		}
		set, err := r.GetSet(ctx, documentID, t.AudioSetID)
		if err != nil {
			continue
		}
		if set.Variant == types.VariantStandard {
			return t, nil
		}
	}

	return nil, nil
}

func (r *StorageRepository) readTrack(ctx context.Context, key string) (*types.AudioTrack, error) {
	reader, err := r.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	defer reader.Close()

	var t types.AudioTrack
	if err := json.NewDecoder(reader).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	return &t, nil
}

// SaveTrack upserts a track at its natural key. A regenerated section
// overwrites the stored record in place, so the record ID survives.
func (r *StorageRepository) SaveTrack(ctx context.Context, track *types.AudioTrack) error {
	if track.ID == "" {
		track.ID = NewID()
	}
	now := time.Now().UTC()
	if track.CreatedAt.IsZero() {
		track.CreatedAt = now
	}
	track.UpdatedAt = now

	data, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("failed to marshal track: %w", err)
	}

	key := trackKey(track.DocumentID, track.AudioSetID, track.SectionKey)
	if err := r.storage.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("failed to store track: %w", err)
	}
	return nil
}

// ListTracks returns all tracks for a document across its sets
func (r *StorageRepository) ListTracks(ctx context.Context, documentID string) ([]*types.AudioTrack, error) {
	prefix := path.Join("visions", documentID, "sets") + "/"
	keys, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}

	tracks := make([]*types.AudioTrack, 0)
	for _, key := range keys {
		if path.Base(path.Dir(key)) != "tracks" {
			continue
		}

		t, err := r.readTrack(ctx, key)
		if err != nil {
			continue // Skip records that can't be read
		}
		tracks = append(tracks, t)
	}

	return tracks, nil
}

// ListSetTracks returns all tracks belonging to one set
func (r *StorageRepository) ListSetTracks(ctx context.Context, documentID, setID string) ([]*types.AudioTrack, error) {
	prefix := path.Join("visions", documentID, "sets", setID, "tracks") + "/"
	keys, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list set tracks: %w", err)
	}

	tracks := make([]*types.AudioTrack, 0, len(keys))
	for _, key := range keys {
		t, err := r.readTrack(ctx, key)
		if err != nil {
			continue
		}
		tracks = append(tracks, t)
	}

	return tracks, nil
}

// GetBatch retrieves a generation batch by ID
func (r *StorageRepository) GetBatch(ctx context.Context, batchID string) (*types.GenerationBatch, error) {
	reader, err := r.storage.Get(ctx, batchKey(batchID))
	if err != nil {
		return nil, fmt.Errorf("failed to get batch %s: %w", batchID, err)
	}
	defer reader.Close()

	var batch types.GenerationBatch
	if err := json.NewDecoder(reader).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	return &batch, nil
}

// SaveBatch stores a generation batch
func (r *StorageRepository) SaveBatch(ctx context.Context, batch *types.GenerationBatch) error {
	if batch.ID == "" {
		batch.ID = NewID()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	if err := r.storage.Put(ctx, batchKey(batch.ID), bytes.NewReader(data), storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("failed to store batch: %w", err)
	}
	return nil
}

// GetVariantLevels returns stored mix levels for a variant
func (r *StorageRepository) GetVariantLevels(ctx context.Context, variant string) (*types.VariantLevels, error) {
	key := variantKey(variant)
	exists, err := r.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check variant levels: %w", err)
	}
	if !exists {
		return nil, nil
	}

	reader, err := r.storage.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant levels: %w", err)
	}
	defer reader.Close()

	var levels types.VariantLevels
	if err := json.NewDecoder(reader).Decode(&levels); err != nil {
		return nil, fmt.Errorf("failed to decode variant levels: %w", err)
	}
	return &levels, nil
}

// SaveVariantLevels stores mix levels for a variant
func (r *StorageRepository) SaveVariantLevels(ctx context.Context, levels *types.VariantLevels) error {
	data, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("failed to marshal variant levels: %w", err)
	}

	if err := r.storage.Put(ctx, variantKey(levels.Variant), bytes.NewReader(data), storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("failed to store variant levels: %w", err)
	}
	return nil
}
