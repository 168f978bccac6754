package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/visionvoice/visionvoice/internal/storage"
)

// Ledger persists usage entries as JSON records in the blob store, one
// object per call, keyed by owner and entry id.
type Ledger struct {
	store storage.Adapter
}

// NewLedger creates a storage-backed usage ledger
func NewLedger(store storage.Adapter) *Ledger {
	return &Ledger{store: store}
}

// Record writes one usage entry
func (l *Ledger) Record(ctx context.Context, entry Entry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal usage entry: %w", err)
	}

	key := path.Join("usage", entry.OwnerID, fmt.Sprintf("%s.json", uuid.New().String()))
	if err := l.store.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("failed to store usage entry: %w", err)
	}

	return nil
}

// MemoryRecorder collects usage entries in memory for tests
type MemoryRecorder struct {
	mu      sync.Mutex
	Entries []Entry
}

// Record appends the entry
func (m *MemoryRecorder) Record(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// Total returns the summed character count across recorded entries
func (m *MemoryRecorder) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, e := range m.Entries {
		total += e.Characters
	}
	return total
}
