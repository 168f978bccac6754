package usage

import (
	"context"
	"math"
	"time"
)

// SystemOwnerID attributes synthesis that serves the platform itself
// (voice previews, reference clips) rather than an end user.
const SystemOwnerID = "system"

// Per-1000-character synthesis rates in cents, one fixed table per provider.
var centsPer1K = map[string]float64{
	"openai":     1.5,
	"elevenlabs": 15.0,
}

// CostCents returns the cost of synthesizing the given character count with
// the given provider, rounded to whole cents. Unknown providers cost zero.
func CostCents(provider string, characters int) int {
	rate, ok := centsPer1K[provider]
	if !ok {
		return 0
	}
	return int(math.Round(float64(characters) / 1000.0 * rate))
}

// Entry records one synthesis call's character usage and cost
type Entry struct {
	OwnerID    string    `json:"owner_id"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	VoiceID    string    `json:"voice_id"`
	Characters int       `json:"characters"`
	CostCents  int       `json:"cost_cents"`
	AudioBytes int       `json:"audio_bytes"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Recorder persists usage entries. Recording is a side effect of every
// successful provider call; implementations must be safe to call from the
// synthesis path.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}
