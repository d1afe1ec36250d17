package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amishk599/coldmail/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// Slack Block Kit limits.
const (
	maxHeaderChars  = 150
	maxSectionChars = 3000
)

// maxRetryAfter caps the wait before the single 429 retry.
const maxRetryAfter = 10 * time.Second

// SlackNotifier posts finished drafts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each draft to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends the draft as a single Slack message using Block Kit.
// Results that did not produce an email are ignored. A rate-limited post is
// retried once after sleeping in the caller's goroutine for at most maxRetryAfter.
func (s *SlackNotifier) Notify(result *model.Result) error {
	if result == nil || result.Status != model.StatusOK {
		return nil
	}

	body, err := json.Marshal(buildPayload(result))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	// A 429 is retried once after the delay Slack asks for.
	for attempt := 0; ; attempt++ {
		status, retryAfter, err := s.post(body)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusOK:
			s.logger.Info("slack message sent", "url", result.URL, "attempts", attempt+1)
			return nil
		case status == http.StatusTooManyRequests && attempt == 0:
			s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter.String())
			time.Sleep(retryAfter)
		default:
			return fmt.Errorf("slack returned %d", status)
		}
	}
}

// post sends body to the webhook and returns the status code and the
// Retry-After delay.
func (s *SlackNotifier) post(body []byte) (int, time.Duration, error) {
	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, retryDelay(resp.Header.Get("Retry-After")), nil
}

// retryDelay parses a Retry-After seconds value, clamped to [1s, maxRetryAfter].
func retryDelay(header string) time.Duration {
	secs, _ := strconv.Atoi(header)
	return min(time.Duration(max(secs, 1))*time.Second, maxRetryAfter)
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a sample draft to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	testResult := &model.Result{
		URL:    "https://example.com/careers/test-001",
		Status: model.StatusOK,
		Jobs: []any{map[string]any{
			"role":        "Test Notification: Integration Verified",
			"experience":  float64(3),
			"skills":      []any{"Go", "Slack"},
			"description": "This is a test message from coldmail.",
		}},
		Email: "Subject: Integration check\n\nDear Hiring Manager,\n\nThis is a test draft sent by coldmail.\n\nBest regards,\nColdmail",
	}
	return n.Notify(testResult)
}

func buildPayload(r *model.Result) slackPayload {
	var posting model.JobPosting
	if len(r.Jobs) > 0 {
		posting, _ = model.DecodePosting(r.Jobs[0])
	}

	role := posting.Role
	if role == "" {
		role = "Job posting"
	}
	experience := "Not specified"
	if posting.Experience != nil {
		experience = fmt.Sprintf("%d years", *posting.Experience)
	}
	skills := "Not specified"
	if len(posting.Skills) > 0 {
		skills = strings.Join(posting.Skills, ", ")
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: truncate("✉️ Cold email drafted: "+role, maxHeaderChars)},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Experience:*\n" + experience},
				{Type: "mrkdwn", Text: "*Jobs found:*\n" + strconv.Itoa(len(r.Jobs))},
			},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: truncate("*Skills:* "+skills, maxSectionChars)},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: truncate(r.Email, maxSectionChars)},
		},
		{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Posting"},
					URL:   r.URL,
					Style: "primary",
				},
			},
		},
		{Type: "divider"},
	}

	return slackPayload{Blocks: blocks}
}

// truncate shortens s to at most n characters, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
