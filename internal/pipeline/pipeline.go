package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amishk599/coldmail/internal/model"
)

// User-facing messages for each outcome.
const (
	MsgMissingURL  = "Please enter a valid job URL."
	MsgFetchFailed = "Error fetching job page: "
	MsgNotFound    = "Job description not found or too short."
	MsgNoJobs      = "No structured job details extracted. Check the job posting format."
	MsgOK          = "Cold email generated."
)

// JobExtractor turns raw job text into zero or more job records.
type JobExtractor interface {
	ExtractJobs(ctx context.Context, text string) []any
}

// MailDrafter writes an email for one job record.
type MailDrafter interface {
	WriteMail(ctx context.Context, job any, links []string) string
}

// Runner executes one user action end to end.
type Runner interface {
	Run(ctx context.Context, url string) *model.Result
}

// Ensure Pipeline implements Runner.
var _ Runner = (*Pipeline)(nil)

// Pipeline owns one user action: fetch → extract → draft, then record and deliver.
type Pipeline struct {
	fetcher   model.PageFetcher
	extractor JobExtractor
	drafter   MailDrafter
	links     []string
	store     model.HistoryStore
	notifier  model.Notifier
	logger    *slog.Logger
}

// New creates a pipeline wired with all its dependencies. store and notifier may be nil.
func New(
	fetcher model.PageFetcher,
	extractor JobExtractor,
	drafter MailDrafter,
	links []string,
	store model.HistoryStore,
	notifier model.Notifier,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		drafter:   drafter,
		links:     links,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

// Run executes one action for url. It never fails: every problem becomes a
// Result with a non-ok Status and a message for the user.
func (p *Pipeline) Run(ctx context.Context, url string) *model.Result {
	url = strings.TrimSpace(url)
	result := p.run(ctx, url)
	p.logger.Info("run finished",
		"url", url,
		"status", result.Status,
		"jobs", len(result.Jobs),
		"chars", utf8.RuneCountInString(result.RawText),
	)

	if result.Status != model.StatusMissingURL {
		p.record(result)
	}
	if result.Status == model.StatusOK && p.notifier != nil {
		if err := p.notifier.Notify(result); err != nil {
			p.logger.Error("delivering draft failed", "url", url, "error", err)
		}
	}
	return result
}

func (p *Pipeline) run(ctx context.Context, url string) *model.Result {
	result := &model.Result{URL: url, Jobs: []any{}}
	if url == "" {
		result.Status = model.StatusMissingURL
		result.Message = MsgMissingURL
		return result
	}

	p.logger.Info("fetching job description", "url", url)
	text, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, model.ErrJobTextNotFound) {
			p.logger.Warn("job description not found", "url", url)
			result.Status = model.StatusNotFound
			result.Message = MsgNotFound
			return result
		}
		p.logger.Error("fetching job page failed", "url", url, "error", err)
		result.Status = model.StatusFetchFailed
		result.Message = MsgFetchFailed + err.Error()
		return result
	}
	result.RawText = text
	result.Preview = model.Preview(text)

	p.logger.Info("extracting structured job details", "url", url)
	jobs := p.extractor.ExtractJobs(ctx, text)
	if len(jobs) == 0 {
		result.Status = model.StatusNoJobs
		result.Message = MsgNoJobs
		return result
	}
	result.Jobs = jobs

	p.logger.Info("generating cold email", "url", url, "jobs", len(jobs))
	result.Email = p.drafter.WriteMail(ctx, jobs[0], p.links)
	result.Status = model.StatusOK
	result.Message = MsgOK
	return result
}

// record writes the run to history. Failures are logged and otherwise ignored.
func (p *Pipeline) record(result *model.Result) {
	if p.store == nil {
		return
	}

	jobsJSON, err := json.Marshal(result.Jobs)
	if err != nil {
		p.logger.Warn("encoding jobs for history failed", "error", err)
		jobsJSON = []byte("[]")
	}

	entry := model.HistoryEntry{
		URL:       result.URL,
		Status:    result.Status,
		JobCount:  len(result.Jobs),
		JobsJSON:  string(jobsJSON),
		Email:     result.Email,
		CreatedAt: time.Now(),
	}
	if err := p.store.Record(entry); err != nil {
		p.logger.Error("recording history failed", "url", result.URL, "error", err)
	}
}
