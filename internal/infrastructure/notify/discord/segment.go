package discord

import (
	"regexp"
	"strings"
)

// chunkMarker matches the (<n>/<m>) tags that long-form upstream producers
// embed to keep multi-part content ordered.
var chunkMarker = regexp.MustCompile(`\(\d+/\d+\)`)

// Segment splits text into messages of at most limit characters. Splits
// happen before each chunk marker so the marker stays attached to the chunk
// it introduces; consecutive chunks are packed greedily. A single chunk
// longer than limit is hard-split, with the final slice seeding the next
// buffer. Text without any markers is sliced at fixed size.
func Segment(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}

	chunks := splitOnMarkers(text)
	if len(chunks) == 0 {
		return sliceFixed(text, limit)
	}

	var segments []string
	buffer := ""
	for _, chunk := range chunks {
		if len(chunk) > limit {
			if buffer != "" {
				segments = append(segments, buffer)
			}
			slices := sliceFixed(chunk, limit)
			segments = append(segments, slices[:len(slices)-1]...)
			buffer = slices[len(slices)-1]
			continue
		}

		switch {
		case buffer == "":
			buffer = chunk
		case len(buffer)+len(chunk)+1 <= limit:
			buffer = buffer + "\n" + chunk
		default:
			segments = append(segments, buffer)
			buffer = chunk
		}
	}
	if buffer != "" {
		segments = append(segments, buffer)
	}
	return segments
}

// splitOnMarkers cuts the text before every chunk marker and trims the
// pieces. Returns nil when no marker exists anywhere in the text.
func splitOnMarkers(text string) []string {
	locs := chunkMarker.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	bounds := []int{0}
	for _, loc := range locs {
		if loc[0] > 0 {
			bounds = append(bounds, loc[0])
		}
	}
	bounds = append(bounds, len(text))

	chunks := make([]string, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		piece := strings.TrimSpace(text[bounds[i]:bounds[i+1]])
		if piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

func sliceFixed(text string, limit int) []string {
	if text == "" {
		return nil
	}
	out := make([]string, 0, len(text)/limit+1)
	for len(text) > limit {
		out = append(out, text[:limit])
		text = text[limit:]
	}
	return append(out, text)
}
