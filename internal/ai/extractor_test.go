package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"text/template"
)

// mockProvider is a stub LLMProvider for testing.
type mockProvider struct {
	response string
	err      error
	calls    int
	prompt   string
}

func (m *mockProvider) Complete(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.response, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExtractor(provider LLMProvider) *Extractor {
	return NewExtractor(provider, ExtractJobsTemplate, discardLogger())
}

var longJobText = strings.Repeat("Senior Go engineer wanted to build payment services. ", 3)

func TestExtractJobs_ShortInputSkipsModel(t *testing.T) {
	provider := &mockProvider{response: `[{"role":"x"}]`}
	extractor := newTestExtractor(provider)

	for _, input := range []string{"", "too short", strings.Repeat("a", 99)} {
		got := extractor.ExtractJobs(context.Background(), input)
		if got == nil || len(got) != 0 {
			t.Errorf("ExtractJobs(%d chars) = %v, want empty non-nil slice", len(input), got)
		}
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
}

func TestExtractJobs_ExactlyMinLengthCallsModel(t *testing.T) {
	provider := &mockProvider{response: `[]`}
	newTestExtractor(provider).ExtractJobs(context.Background(), strings.Repeat("a", 100))
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
}

func TestExtractJobs_SingleObjectIsWrapped(t *testing.T) {
	provider := &mockProvider{response: `{"role":"Engineer","experience":3,"skills":["Go"],"description":"Build services"}`}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)

	want := []any{map[string]any{
		"role":        "Engineer",
		"experience":  float64(3),
		"skills":      []any{"Go"},
		"description": "Build services",
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestExtractJobs_ArrayReturnedInOrder(t *testing.T) {
	provider := &mockProvider{response: `[{"role":"A"},{"role":"B"},{"role":"C"}]`}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, role := range []string{"A", "B", "C"} {
		if got[i].(map[string]any)["role"] != role {
			t.Errorf("got[%d] = %v, want role %s", i, got[i], role)
		}
	}
}

func TestExtractJobs_NonObjectElementsPassThrough(t *testing.T) {
	provider := &mockProvider{response: `["Engineer", 42, {"role":"PM"}]`}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)
	want := []any{"Engineer", float64(42), map[string]any{"role": "PM"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestExtractJobs_ScalarBecomesOneElement(t *testing.T) {
	provider := &mockProvider{response: `"just a string"`}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)
	if !reflect.DeepEqual(got, []any{"just a string"}) {
		t.Errorf("got %#v", got)
	}
}

func TestExtractJobs_ProseReplyYieldsEmpty(t *testing.T) {
	provider := &mockProvider{response: "Sure! Here are the job details you asked for."}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestExtractJobs_ProviderErrorYieldsEmpty(t *testing.T) {
	provider := &mockProvider{err: errors.New("network error")}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestExtractJobs_FencedReply(t *testing.T) {
	provider := &mockProvider{response: "```json\n[{\"role\":\"Engineer\"}]\n```"}

	got := newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)
	if len(got) != 1 || got[0].(map[string]any)["role"] != "Engineer" {
		t.Errorf("got %#v", got)
	}
}

func TestExtractJobs_ChattyReplies(t *testing.T) {
	replies := []string{
		"Here is the extracted job data:\n```json\n[{\"role\":\"Engineer\"}]\n```",
		"```json [{\"role\":\"Engineer\"}]```",
		"[{\"role\":\"Engineer\",\"description\":\"line1\nline2\"}]",
	}
	for _, reply := range replies {
		got := newTestExtractor(&mockProvider{response: reply}).ExtractJobs(context.Background(), longJobText)
		if len(got) != 1 || got[0].(map[string]any)["role"] != "Engineer" {
			t.Errorf("reply %q: got %#v", reply, got)
		}
	}
}

func TestExtractJobs_PromptEmbedsText(t *testing.T) {
	provider := &mockProvider{response: `[]`}
	newTestExtractor(provider).ExtractJobs(context.Background(), longJobText)

	if !strings.Contains(provider.prompt, longJobText) {
		t.Error("prompt does not contain the job text")
	}
	if !strings.Contains(provider.prompt, "valid JSON array") {
		t.Error("prompt does not contain extraction instructions")
	}
}

func TestExtractJobs_BrokenTemplateYieldsEmpty(t *testing.T) {
	tmpl := template.Must(template.New("bad").Parse("{{.Missing.Field}}"))
	provider := &mockProvider{response: `[]`}

	got := NewExtractor(provider, tmpl, discardLogger()).ExtractJobs(context.Background(), longJobText)
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
	if provider.calls != 0 {
		t.Errorf("provider should not be called when the prompt fails to render")
	}
}
