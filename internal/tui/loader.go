package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/pipeline"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type spinnerTickMsg struct{}

type loaderModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	guard  *runGuard
	url    string
	runner pipeline.Runner
	frame  int
	result *model.Result
	done   bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doRun(), tick())
}

func (m loaderModel) doRun() tea.Cmd {
	ctx, runner, url, guard := m.ctx, m.runner, m.url, m.guard
	return func() tea.Msg {
		if !guard.start() {
			return nil
		}
		defer guard.wg.Done()
		return runDoneMsg{result: runner.Run(ctx, url)}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runDoneMsg:
		m.result = msg.result
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s Generating cold email for %s...\n", spinner, m.url)
}

// RunWithLoader runs the pipeline once for url while showing an inline spinner
// (no alt screen). It returns an error only if the user cancels or the terminal fails,
// and never before the run has finished.
func RunWithLoader(ctx context.Context, runner pipeline.Runner, url string) (*model.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	m := loaderModel{
		ctx:    ctx,
		cancel: cancel,
		guard:  &runGuard{},
		url:    url,
		runner: runner,
	}
	defer func() {
		cancel()
		m.guard.closeAndWait()
	}()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	if final.result == nil {
		return nil, fmt.Errorf("cancelled")
	}
	return final.result, nil
}
