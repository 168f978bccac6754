package textproc

import (
	"strings"
	"testing"
)

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	chunks, err := Chunk("Hello world. This is short.", DefaultChunkSize)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Hello world. This is short." {
		t.Errorf("Unexpected chunk content: %q", chunks[0])
	}
}

func TestChunk_EmptyTextNeverEmpty(t *testing.T) {
	chunks, err := Chunk("", DefaultChunkSize)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected single chunk for empty input, got %d", len(chunks))
	}
}

func TestChunk_SentencePacking(t *testing.T) {
	// Ten 20-char sentences; with maxLen 50 each chunk fits two sentences.
	sentence := "Aaaa bbbb cccc dddd."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 10))

	chunks, err := Chunk(text, 50)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 50 {
			t.Errorf("Chunk %d exceeds max length: %d chars", i, len(c))
		}
	}
}

func TestChunk_HardSplitLongSentence(t *testing.T) {
	// One 100-char "sentence" with no boundaries must be split at exactly maxLen.
	text := strings.Repeat("a", 100)
	chunks, err := Chunk(text, 30)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("Expected 4 chunks (30+30+30+10), got %d", len(chunks))
	}
	for i := 0; i < 3; i++ {
		if len(chunks[i]) != 30 {
			t.Errorf("Chunk %d: expected 30 chars, got %d", i, len(chunks[i]))
		}
	}
	if len(chunks[3]) != 10 {
		t.Errorf("Final chunk: expected 10 chars, got %d", len(chunks[3]))
	}
}

func TestChunk_RoundTrip(t *testing.T) {
	inputs := []string{
		"Short text.",
		strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog! ", 40)),
		strings.Repeat("x", 7500),
		"Mixed? Yes. " + strings.Repeat("b", 4000) + " Trailing sentence here.",
	}

	for _, input := range inputs {
		chunks, err := Chunk(input, 1000)
		if err != nil {
			t.Fatalf("Chunk failed for %d-char input: %v", len(input), err)
		}

		total := 0
		for _, c := range chunks {
			total += len(c)
		}
		normalized := Normalize(input)
		if total != len(normalized) {
			t.Errorf("Round-trip mismatch: chunks cover %d chars, normalized input has %d", total, len(normalized))
		}
		if strings.Join(chunks, "") != normalized {
			t.Errorf("Concatenated chunks do not reproduce normalized input")
		}
	}
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One. Two! Three? Four")
	if len(sentences) != 4 {
		t.Fatalf("Expected 4 sentences, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "One. " {
		t.Errorf("Expected separator kept with sentence, got %q", sentences[0])
	}
	if sentences[3] != "Four" {
		t.Errorf("Expected trailing fragment preserved, got %q", sentences[3])
	}
}
