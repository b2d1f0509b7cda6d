package bulletindex

// Hit is one scored chunk that grounded the answer.
type Hit struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

// AskResponse is the assistant's reply plus the bulletin files it drew from.
type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Hits    []Hit    `json:"hits,omitempty"`
}

// Segment is one selectable audience segment.
type Segment struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// HealthReport is the service health payload.
type HealthReport struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
	Chunks    int               `json:"chunks"`
	Dimension int               `json:"dimension"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
