package textproc

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultChunkSize is the per-request character limit both providers accept
// comfortably (~3k chars per synthesis call).
const DefaultChunkSize = 3000

// ErrChunkIntegrity is returned when the chunks do not cover exactly the
// normalized input. Concatenating all chunks must reproduce the normalized
// text character for character; anything else is a chunker bug, not a
// condition to log and continue past.
var ErrChunkIntegrity = errors.New("chunk integrity violation")

// Chunk splits text into provider-safe segments of at most maxLen bytes.
// The text is normalized first. If the normalized text fits in maxLen a
// single chunk is returned. Otherwise the text is split on sentence
// boundaries (sentence-ending punctuation followed by whitespace) and
// sentences are greedily packed; a single sentence longer than maxLen is
// hard-split at exactly maxLen with no boundary awareness.
//
// Invariant: the concatenation of all chunks equals the normalized input.
func Chunk(text string, maxLen int) ([]string, error) {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}

	t := Normalize(text)
	if len(t) <= maxLen {
		return []string{t}, nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, sentence := range splitSentences(t) {
		if current.Len()+len(sentence) > maxLen {
			flush()
		}
		if len(sentence) > maxLen {
			for i := 0; i < len(sentence); i += maxLen {
				end := i + maxLen
				if end > len(sentence) {
					end = len(sentence)
				}
				piece := sentence[i:end]
				if len(piece) == maxLen {
					chunks = append(chunks, piece)
				} else {
					current.WriteString(piece)
				}
			}
			continue
		}
		current.WriteString(sentence)
	}
	flush()

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(t) {
		return nil, fmt.Errorf("%w: chunks cover %d of %d characters", ErrChunkIntegrity, total, len(t))
	}

	return chunks, nil
}

// splitSentences splits normalized text after sentence-ending punctuation
// followed by a space. The separator space stays attached to the preceding
// sentence so that concatenating the pieces reproduces the input exactly.
func splitSentences(t string) []string {
	var sentences []string
	start := 0
	for i := 0; i+1 < len(t); i++ {
		switch t[i] {
		case '.', '!', '?':
			if t[i+1] == ' ' {
				sentences = append(sentences, t[start:i+2])
				start = i + 2
				i++
			}
		}
	}
	if start < len(t) {
		sentences = append(sentences, t[start:])
	}
	return sentences
}
