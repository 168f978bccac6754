package textproc

import "strings"

var (
	// Sleep narration stretches every pause with ellipses so the voice
	// drifts rather than drives.
	sleepPacer = strings.NewReplacer(
		". ", ". ... ",
		"? ", "? ... ",
		"! ", "! ... ",
		";", "... ",
		", ", "... ",
	)

	// Meditation narration elongates pauses much further for slow,
	// methodical delivery.
	meditationPacer = strings.NewReplacer(
		". ", ". ........ ",
		"? ", "? ........ ",
		"! ", "! ........ ",
		";", "........ ",
		", ", "......... ",
	)

	// Energy narration keeps the text moving; semicolons become commas.
	energyPacer = strings.NewReplacer(
		";", ", ",
	)
)

// PaceForVariant rewrites punctuation pauses to match a variant's delivery
// style before synthesis. Standard (and unknown) variants pass through
// unchanged.
func PaceForVariant(text, variant string) string {
	switch variant {
	case "sleep":
		return sleepPacer.Replace(text)
	case "meditation":
		return meditationPacer.Replace(text)
	case "energy":
		return energyPacer.Replace(text)
	default:
		return text
	}
}
