package discord

import (
	"strings"
	"testing"
)

func TestSegmentShortTextSinglePiece(t *testing.T) {
	got := Segment("hello world", 2000)
	if len(got) != 1 || got[0] != "hello world" {
		t.Fatalf("Segment() = %v", got)
	}
}

func TestSegmentRespectsLimit(t *testing.T) {
	text := "(1/3) " + strings.Repeat("a", 40) +
		" (2/3) " + strings.Repeat("b", 40) +
		" (3/3) " + strings.Repeat("c", 40)

	for _, segment := range Segment(text, 50) {
		if len(segment) > 50 {
			t.Fatalf("segment exceeds limit: %d chars", len(segment))
		}
	}
}

func TestSegmentSplitsBeforeMarkers(t *testing.T) {
	text := "(1/2) first part (2/2) second part"

	got := Segment(text, 20)
	if len(got) != 2 {
		t.Fatalf("Segment() = %v, want 2 segments", got)
	}
	if !strings.HasPrefix(got[0], "(1/2)") || !strings.HasPrefix(got[1], "(2/2)") {
		t.Fatalf("markers not at segment starts: %v", got)
	}
}

func TestSegmentPacksChunksGreedily(t *testing.T) {
	text := "(1/3) aa (2/3) bb (3/3) cc"

	got := Segment(text, 2000)
	if len(got) != 1 {
		t.Fatalf("Segment() = %v, want 1 packed segment", got)
	}
	for _, part := range []string{"(1/3) aa", "(2/3) bb", "(3/3) cc"} {
		if !strings.Contains(got[0], part) {
			t.Fatalf("segment missing %q: %q", part, got[0])
		}
	}
}

func TestSegmentHardSplitsOversizedChunk(t *testing.T) {
	text := "(1/2) " + strings.Repeat("x", 120) + " (2/2) tail"

	got := Segment(text, 50)
	if len(got) < 3 {
		t.Fatalf("Segment() = %d segments, want at least 3", len(got))
	}
	for _, segment := range got {
		if len(segment) > 50 {
			t.Fatalf("segment exceeds limit: %d chars", len(segment))
		}
	}
	joined := strings.Join(got, "")
	if !strings.Contains(joined, strings.Repeat("x", 120)) {
		t.Fatalf("hard split lost content")
	}
}

func TestSegmentNoMarkersUsesFixedSlicing(t *testing.T) {
	text := strings.Repeat("y", 45)

	got := Segment(text, 20)
	if len(got) != 3 {
		t.Fatalf("Segment() = %d segments, want 3", len(got))
	}
	if strings.Join(got, "") != text {
		t.Fatalf("fixed slicing lost content")
	}
}

func TestSegmentContentRecoverable(t *testing.T) {
	text := "(1/2) alpha beta (2/2) gamma delta"

	joined := strings.Join(Segment(text, 20), "\n")
	for _, word := range []string{"alpha", "beta", "gamma", "delta"} {
		if !strings.Contains(joined, word) {
			t.Fatalf("segmentation lost %q: %q", word, joined)
		}
	}
}
