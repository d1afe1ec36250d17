package model

import (
	"context"
	"time"
	"unicode/utf8"
)

// MinJobTextLength is the minimum number of characters a scraped job text
// needs before it is worth sending to the model.
const MinJobTextLength = 100

// PreviewLength caps how much of the raw job text is shown back to the user.
const PreviewLength = 1000

// JobPosting is the nominal shape the model is asked to produce for each job.
// Extracted records stay as decoded JSON values; this is only a typed view for rendering.
type JobPosting struct {
	Role        string   `json:"role"`
	Experience  *int     `json:"experience"` // nil when the posting does not say
	Skills      []string `json:"skills"`
	Description string   `json:"description"`
}

// DecodePosting reads the nominal fields out of an extracted record.
// ok is false when the record is not a JSON object. Missing or mistyped fields are left zero.
func DecodePosting(record any) (JobPosting, bool) {
	obj, ok := record.(map[string]any)
	if !ok {
		return JobPosting{}, false
	}

	var p JobPosting
	if s, ok := obj["role"].(string); ok {
		p.Role = s
	}
	if f, ok := obj["experience"].(float64); ok {
		years := int(f)
		p.Experience = &years
	}
	if list, ok := obj["skills"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				p.Skills = append(p.Skills, s)
			}
		}
	}
	if s, ok := obj["description"].(string); ok {
		p.Description = s
	}
	return p, true
}

// Status is the terminal outcome of one pipeline run.
type Status string

const (
	StatusOK          Status = "ok"
	StatusMissingURL  Status = "missing_url"
	StatusFetchFailed Status = "fetch_failed"
	StatusNotFound    Status = "not_found"
	StatusNoJobs      Status = "no_jobs"
)

// IsWarning reports whether the status should be shown as a warning rather than an error.
func (s Status) IsWarning() bool {
	return s == StatusMissingURL || s == StatusNotFound
}

// Result is everything one user action produces. It is never persisted by the pipeline itself.
type Result struct {
	URL     string `json:"url"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	RawText string `json:"-"`
	Preview string `json:"preview,omitempty"`
	Jobs    []any  `json:"jobs"`
	Email   string `json:"email,omitempty"`
}

// Preview returns the first PreviewLength characters of text.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:PreviewLength])
}

// HistoryEntry is one recorded run in the optional history store.
type HistoryEntry struct {
	ID        string
	URL       string
	Status    Status
	JobCount  int
	JobsJSON  string
	Email     string
	CreatedAt time.Time
}

// PageFetcher downloads a page and returns the text believed to be the job description.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HistoryStore records finished runs.
type HistoryStore interface {
	Record(entry HistoryEntry) error
	Recent(limit int) ([]HistoryEntry, error)
	Cleanup(olderThan time.Duration) error
}

// Notifier delivers a finished draft somewhere outside the UI.
type Notifier interface {
	Notify(result *Result) error
}
