package domain

// Chunking defaults, sized to bound embedding input while keeping enough
// surrounding context that an answer spanning a window boundary survives
// whole in at least one chunk.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// ChunkText splits text into consecutive windows of size runes, each window
// starting overlap runes before the previous one ended. The final window may
// be shorter. Empty text yields no chunks.
//
// Windows are measured in runes so multi-byte characters never split.
// Callers must ensure overlap < size; advancement stalls otherwise.
func ChunkText(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
