package domain

// Hit is one scored chunk returned by retrieval. Hits are ephemeral: they
// are produced per query and never persisted.
type Hit struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// DotProduct scores a query vector against a chunk vector.
//
// The score is the raw dot product, not cosine similarity: the embedding
// model is assumed to produce unit-scaled (or near-constant magnitude)
// vectors, so dot-product ranking approximates cosine ranking. Accumulation
// runs in float64 to keep the sum stable over long vectors.
func DotProduct(query []float32, chunk []float32) float64 {
	n := len(query)
	if len(chunk) < n {
		n = len(chunk)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(query[i]) * float64(chunk[i])
	}
	return sum
}
