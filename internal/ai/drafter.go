package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"text/template"
)

// Fixed replies returned instead of an email when drafting cannot happen.
const (
	NoJobDataMessage   = "Error: No job data available."
	DraftFailedMessage = "Error: Unable to generate email."
)

// Drafter writes cold outreach emails for extracted job records.
type Drafter struct {
	provider LLMProvider
	tmpl     *template.Template
	sender   Sender
	logger   *slog.Logger
}

// NewDrafter creates a drafter writing as sender. tmpl receives
// {JobDescription string, LinkList string, Sender Sender}.
func NewDrafter(provider LLMProvider, tmpl *template.Template, sender Sender, logger *slog.Logger) *Drafter {
	return &Drafter{
		provider: provider,
		tmpl:     tmpl,
		sender:   sender,
		logger:   logger,
	}
}

// WriteMail drafts an email for job that cites the most relevant of links.
// The model's reply is returned verbatim. An empty job returns NoJobDataMessage and
// any failure returns DraftFailedMessage; errors are logged, never returned.
func (d *Drafter) WriteMail(ctx context.Context, job any, links []string) string {
	if isFalsy(job) {
		d.logger.Warn("no job data provided")
		return NoJobDataMessage
	}

	linkList, err := json.Marshal(nonNil(links))
	if err != nil {
		d.logger.Error("error generating email", "stage", "encode links", "error", err)
		return DraftFailedMessage
	}

	var promptBuf bytes.Buffer
	if err := d.tmpl.Execute(&promptBuf, struct {
		JobDescription string
		LinkList       string
		Sender         Sender
	}{
		JobDescription: jobText(job),
		LinkList:       string(linkList),
		Sender:         d.sender,
	}); err != nil {
		d.logger.Error("error generating email", "stage", "render prompt", "error", err)
		return DraftFailedMessage
	}

	email, err := d.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		d.logger.Error("error generating email", "stage", "llm complete", "error", err)
		return DraftFailedMessage
	}
	return email
}

// isFalsy reports whether job carries nothing to write about:
// nil, an empty map/slice/string, false, or a zero number.
func isFalsy(job any) bool {
	if job == nil {
		return true
	}
	v := reflect.ValueOf(job)
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	}
	return false
}

// jobText renders job as JSON, falling back to Go formatting for values JSON cannot encode.
func jobText(job any) string {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Sprint(job)
	}
	return string(b)
}

func nonNil(links []string) []string {
	if links == nil {
		return []string{}
	}
	return links
}
