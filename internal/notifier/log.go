package notifier

import (
	"log/slog"

	"github.com/amishk599/coldmail/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes finished drafts to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each draft via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the URL, the first record's role, the record count, and the email.
// Results that did not produce an email are ignored. Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(result *model.Result) error {
	if result == nil || result.Status != model.StatusOK {
		return nil
	}

	args := []any{"url", result.URL, "jobs", len(result.Jobs)}
	if len(result.Jobs) > 0 {
		if p, ok := model.DecodePosting(result.Jobs[0]); ok && p.Role != "" {
			args = append(args, "role", p.Role)
		}
	}
	args = append(args, "email", result.Email)
	n.logger.Info("cold email drafted", args...)
	return nil
}
