package types

import (
	"sort"
	"strings"
)

// LogicalTranscript converts a transcript from physical append order into the
// deterministic reading order: stable-sorted by offset ascending, with chunks
// sharing an offset collapsed to the one appended last. Uploads race each
// other over the network, so the stored order varies run to run; every reader
// that needs a coherent transcript goes through here.
func LogicalTranscript(chunks []TranscriptChunk) []TranscriptChunk {
	if len(chunks) == 0 {
		return []TranscriptChunk{}
	}

	// Later appends win for a given offset: a resubmitted chunk is a retry,
	// not new content.
	latest := make(map[int64]TranscriptChunk, len(chunks))
	for _, c := range chunks {
		latest[c.Offset] = c
	}

	out := make([]TranscriptChunk, 0, len(latest))
	for _, c := range latest {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// TranscriptLines returns the logical transcript as plain text lines.
func TranscriptLines(chunks []TranscriptChunk) []string {
	logical := LogicalTranscript(chunks)
	lines := make([]string, 0, len(logical))
	for _, c := range logical {
		lines = append(lines, c.Text)
	}
	return lines
}

// JoinTranscript flattens the logical transcript into one block of text.
func JoinTranscript(chunks []TranscriptChunk) string {
	return strings.Join(TranscriptLines(chunks), "\n")
}
