package tts

import "errors"

// ErrPrerequisiteMissing is returned when a mix variant is requested for a
// section that has no completed voice-only track to mix from. Mix variants
// are strictly downstream of standard-variant generation and never trigger
// voice synthesis themselves.
var ErrPrerequisiteMissing = errors.New("prerequisite voice track missing")
