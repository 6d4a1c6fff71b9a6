// Package search provides task search over Meilisearch with a PostgreSQL
// full-text fallback.
package search

// TaskRecord is the searchable projection of a task.
type TaskRecord struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
}

type Query struct {
	Text      string
	ProjectID string
	Limit     int
	Offset    int
}

type Result struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}
