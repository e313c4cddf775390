package server

// AnalyzeResponse is the deliverable returned for a successful analysis.
type AnalyzeResponse struct {
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes"`
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResult is a single answer with its relevance score.
type QueryResult struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// QueryResponse wraps the query results list.
type QueryResponse struct {
	Results []QueryResult `json:"results"`
}
