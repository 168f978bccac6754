package tts

import (
	"context"
	"log"
	"time"

	"github.com/visionvoice/visionvoice/internal/track"
	"github.com/visionvoice/visionvoice/pkg/types"
)

// DeriveBatchStatus maps the three outcome counters to a terminal batch
// status. Pure and order-independent: the same counters always produce the
// same status.
func DeriveBatchStatus(completed, failed, total int) types.BatchStatus {
	switch {
	case failed == total:
		return types.BatchFailed
	case completed == total:
		return types.BatchCompleted
	case completed > 0:
		return types.BatchPartialSuccess
	default:
		return types.BatchFailed
	}
}

// batchProgress pushes per-section outcome counters to a batch record.
// All updates are best-effort: a progress write failure is logged and never
// surfaces into the section outcome it was reporting.
type batchProgress struct {
	repo    track.Repository
	batchID string
	total   int
}

func newBatchProgress(repo track.Repository, batchID string, total int) *batchProgress {
	return &batchProgress{repo: repo, batchID: batchID, total: total}
}

// start marks the batch in progress and links it to the resolved audio set
func (b *batchProgress) start(ctx context.Context, setID string) {
	if b.batchID == "" {
		return
	}

	batch, err := b.repo.GetBatch(ctx, b.batchID)
	if err != nil {
		log.Printf("[Batch] Failed to load batch %s: %v", b.batchID, err)
		return
	}

	now := time.Now().UTC()
	batch.Status = types.BatchInProgress
	batch.StartedAt = &now
	batch.AudioSetIDs = appendUnique(batch.AudioSetIDs, setID)
	batch.TracksPending = b.total

	if err := b.repo.SaveBatch(ctx, batch); err != nil {
		log.Printf("[Batch] Failed to update batch %s: %v", b.batchID, err)
	}
}

// update recomputes counters from the report so far
func (b *batchProgress) update(ctx context.Context, report *types.GenerationReport) {
	if b.batchID == "" {
		return
	}

	batch, err := b.repo.GetBatch(ctx, b.batchID)
	if err != nil {
		log.Printf("[Batch] Failed to load batch %s: %v", b.batchID, err)
		return
	}

	completed := report.Completed()
	failed := report.Failed()
	pending := b.total - completed - failed
	if pending < 0 {
		pending = 0
	}

	batch.TracksCompleted = completed
	batch.TracksFailed = failed
	batch.TracksPending = pending

	if err := b.repo.SaveBatch(ctx, batch); err != nil {
		log.Printf("[Batch] Failed to update batch progress for %s: %v", b.batchID, err)
	}
}

// finalize derives and stores the terminal batch status
func (b *batchProgress) finalize(ctx context.Context, report *types.GenerationReport) {
	if b.batchID == "" {
		return
	}

	batch, err := b.repo.GetBatch(ctx, b.batchID)
	if err != nil {
		log.Printf("[Batch] Failed to load batch %s: %v", b.batchID, err)
		return
	}

	completed := report.Completed()
	failed := report.Failed()
	now := time.Now().UTC()

	batch.Status = DeriveBatchStatus(completed, failed, b.total)
	batch.TracksCompleted = completed
	batch.TracksFailed = failed
	batch.TracksPending = 0
	batch.CompletedAt = &now

	if err := b.repo.SaveBatch(ctx, batch); err != nil {
		log.Printf("[Batch] Failed to finalize batch %s: %v", b.batchID, err)
	}
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
