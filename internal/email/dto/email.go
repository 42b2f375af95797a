package dto

import (
	emaildomain "mail-assistant/internal/email/domain"
)

type SyncRequest struct {
	UserID    string `json:"user_id"`
	MaxEmails int    `json:"max_emails"`
	Query     string `json:"query,omitempty"`
}

type SyncStartedResponse struct {
	Status string `json:"status"`
	User   string `json:"user"`
	RunID  string `json:"run_id"`
}

type SearchRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id,omitempty"`
}

type SearchHit struct {
	EmailID string  `json:"email_id"`
	Score   float32 `json:"score"`
	Subject string  `json:"subject"`
	From    string  `json:"from"`
	Date    string  `json:"date"`
}

type SearchResponse struct {
	RefinedQuery         string      `json:"refined_query"`
	Summary              string      `json:"summary"`
	SelectedEmailSubject *string     `json:"selected_email_subject"`
	SelectedEmailID      *string     `json:"selected_email_id"`
	Results              []SearchHit `json:"results,omitempty"`
}

// NewSearchResponse maps the pipeline state; the selected fields are null
// when nothing matched.
func NewSearchResponse(state *emaildomain.QueryState) SearchResponse {
	resp := SearchResponse{
		RefinedQuery: state.RefinedQuery,
		Summary:      state.Summary,
	}
	if state.Selected != nil {
		subject, id := state.Selected.Subject, state.Selected.ID
		resp.SelectedEmailSubject = &subject
		resp.SelectedEmailID = &id
	}
	for _, h := range state.Results {
		resp.Results = append(resp.Results, SearchHit{
			EmailID: h.ID,
			Score:   h.Score,
			Subject: h.Subject,
			From:    h.From,
			Date:    h.Date,
		})
	}
	return resp
}
