package ai

import (
	"bytes"
	"context"
	"log/slog"
	"text/template"
	"unicode/utf8"

	"github.com/amishk599/coldmail/internal/model"
)

// Extractor turns raw job text into structured job records using an LLM.
type Extractor struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewExtractor creates an extractor. tmpl receives {PageData string}.
func NewExtractor(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// ExtractJobs returns the job records the model finds in text.
//
// It never fails: short input, model errors and unparseable replies all yield an
// empty slice. Records are passed through without filtering; ones that do not look
// like a job posting are only logged.
func (e *Extractor) ExtractJobs(ctx context.Context, text string) []any {
	if utf8.RuneCountInString(text) < model.MinJobTextLength {
		e.logger.Warn("no valid job description found or too short", "chars", utf8.RuneCountInString(text))
		return []any{}
	}

	e.logger.Debug("extracting job details", "preview", truncate(text, 500))

	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, struct{ PageData string }{PageData: text}); err != nil {
		e.logger.Error("unexpected error in job extraction", "stage", "render prompt", "error", err)
		return []any{}
	}

	raw, err := e.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		e.logger.Error("unexpected error in job extraction", "stage", "llm complete", "error", err)
		return []any{}
	}
	e.logger.Debug("raw llm output", "content", raw)

	jobs, err := parseJobs(raw)
	if err != nil {
		e.logger.Error("error parsing job data", "error", err)
		return []any{}
	}

	for i, job := range jobs {
		if problems := shapeProblems(job); len(problems) > 0 {
			e.logger.Warn("extracted record does not match job posting shape", "index", i, "problems", problems)
		}
	}
	return jobs
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
