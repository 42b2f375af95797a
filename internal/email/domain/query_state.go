package domain

// NoRelevantEmail is the summary returned when the search selects nothing.
const NoRelevantEmail = "No relevant email found to summarize."

// SearchHit is one ranked candidate from the vector index.
type SearchHit struct {
	ID      string
	Score   float32
	Subject string
	From    string
	Date    string
}

// QueryState is the per-request state passed through the retrieval pipeline.
type QueryState struct {
	OriginalQuery string
	RefinedQuery  string
	Results       []SearchHit
	Selected      *MailRecord
	Summary       string
}
