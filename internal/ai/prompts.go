package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/extract_jobs.md
var extractJobsPromptRaw string

//go:embed prompts/cold_email.md
var coldEmailPromptRaw string

// ExtractJobsTemplate renders the structured-extraction instruction. Data: {PageData string}.
var ExtractJobsTemplate = template.Must(template.New("extract_jobs").Parse(extractJobsPromptRaw))

// ColdEmailTemplate renders the email-drafting instruction.
// Data: {JobDescription string, LinkList string, Sender Sender}.
var ColdEmailTemplate = template.Must(template.New("cold_email").Parse(coldEmailPromptRaw))

// Sender is the persona the drafted email is written as.
type Sender struct {
	Name    string
	Title   string
	Company string
	Pitch   string
}

// DefaultSender is the persona used when none is configured.
func DefaultSender() Sender {
	return Sender{
		Name:    "Muskan",
		Title:   "Business Development Executive",
		Company: "AtliQ",
		Pitch: "AtliQ is an AI & Software Consulting company that helps businesses optimize processes " +
			"through automation and AI-driven solutions.",
	}
}
