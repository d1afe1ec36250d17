package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/coldmail/internal/model"
	"github.com/amishk599/coldmail/internal/pipeline"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusResults
)

// Title (1) + input (1) + status (1) + border top/bottom (2) + status bar (1).
const chromeHeight = 6

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(14)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// runDoneMsg is sent when an async pipeline run completes.
type runDoneMsg struct {
	result *model.Result
}

// runGuard tracks in-flight runs so Run can wait for them before returning.
// Once closed, no new run starts.
type runGuard struct {
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (g *runGuard) start() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.wg.Add(1)
	return true
}

func (g *runGuard) closeAndWait() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
}

type appModel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	guard    *runGuard
	runner   pipeline.Runner
	input    textinput.Model
	results  viewport.Model
	focus    focusArea
	running  bool
	frame    int
	result   *model.Result
	runs     int
	width    int
	height   int
	ready    bool
	lastURL  string
	openFunc func(url string)
}

func newAppModel(ctx context.Context, runner pipeline.Runner) appModel {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/careers/123"
	ti.Prompt = "Job URL › "
	ti.CharLimit = 2048
	ti.Focus()

	ctx, cancel := context.WithCancel(ctx)
	return appModel{
		ctx:      ctx,
		cancel:   cancel,
		guard:    &runGuard{},
		runner:   runner,
		input:    ti,
		openFunc: openURL,
	}
}

func (m appModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case runDoneMsg:
		m.running = false
		m.result = msg.result
		m.runs++
		m.results.SetContent(m.renderResult())
		m.results.GotoTop()
		return m, nil

	case spinnerTickMsg:
		if !m.running {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancel()
		return m, tea.Quit
	case "tab", "shift+tab":
		if m.focus == focusInput {
			m.focus = focusResults
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()
	case "enter":
		if m.focus != focusInput || m.running {
			return m, nil
		}
		m.running = true
		m.frame = 0
		m.lastURL = m.input.Value()
		return m, tea.Batch(m.runCmd(m.lastURL), tick())
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	if m.focus == focusResults {
		if msg.String() == "o" && m.result != nil && m.result.URL != "" {
			m.openFunc(m.result.URL)
			return m, nil
		}
		if msg.String() == "q" {
			m.cancel()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) runCmd(url string) tea.Cmd {
	ctx, runner, guard := m.ctx, m.runner, m.guard
	return func() tea.Msg {
		if !guard.start() {
			return nil
		}
		defer guard.wg.Done()
		return runDoneMsg{result: runner.Run(ctx, url)}
	}
}

func (m *appModel) recalcLayout() {
	width := max(m.width-2, 20)
	height := max(m.height-chromeHeight, 5)

	if !m.ready {
		m.results = viewport.New(width, height)
		m.ready = true
	} else {
		m.results.Width = width
		m.results.Height = height
	}
	m.input.Width = max(m.width-len(m.input.Prompt)-4, 10)
	m.results.SetContent(m.renderResult())
}

func (m appModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := titleStyle.Render("📧 Cold Mail Generator")
	input := m.input.View()

	status := hintStyle.Render(" enter a job posting URL and press enter")
	switch {
	case m.running:
		status = " " + lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame]) +
			" Fetching, extracting and drafting..."
	case m.result != nil:
		status = " " + statusLine(m.result)
	}

	border := inactiveBorderStyle
	if m.focus == focusResults {
		border = activeBorderStyle
	}
	results := border.Width(m.results.Width).Render(m.results.View())

	help := " enter generate  tab switch focus  ↑/↓ pgup/pgdn scroll  o open posting  esc quit"
	statusBar := statusBarStyle.Width(m.width).Render(help)

	return title + "\n" + input + "\n" + status + "\n" + results + "\n" + statusBar
}

func statusLine(r *model.Result) string {
	switch {
	case r.Status == model.StatusOK:
		return okStyle.Render("✅ " + r.Message)
	case r.Status.IsWarning():
		return warningStyle.Render("⚠️ " + r.Message)
	default:
		return errorStyle.Render("❌ " + r.Message)
	}
}

func (m appModel) renderResult() string {
	r := m.result
	if r == nil {
		return hintStyle.Render("  results will appear here")
	}

	wrapWidth := max(m.results.Width-2, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len([]rune(label)), 3))
		return dividerStyle.Render(label + fill)
	}

	var b strings.Builder
	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("URL", r.URL)
	addField("Status", string(r.Status))
	addField("Run", fmt.Sprintf("#%d", m.runs))

	if r.Preview != "" {
		b.WriteString("\n" + divider("── Extracted Job Description ") + "\n\n")
		b.WriteString(bodyStyle.Render(wordWrap(r.Preview, wrapWidth)) + "\n")
	}

	if len(r.Jobs) > 0 {
		b.WriteString("\n" + divider("── Job Details ") + "\n\n")
		if p, ok := model.DecodePosting(r.Jobs[0]); ok {
			addField("Role", p.Role)
			if p.Experience != nil {
				addField("Experience", fmt.Sprintf("%d years", *p.Experience))
			}
			addField("Skills", strings.Join(p.Skills, ", "))
			b.WriteByte('\n')
		}
		pretty, err := json.MarshalIndent(r.Jobs, "", "  ")
		if err == nil {
			b.WriteString(bodyStyle.Render(string(pretty)) + "\n")
		}
	}

	if r.Email != "" {
		b.WriteString("\n" + divider("── Generated Cold Email ") + "\n\n")
		b.WriteString(bodyStyle.Render(wordWrap(r.Email, wrapWidth)) + "\n")
	}

	return b.String()
}

// wordWrap wraps each line of text at width, keeping existing line breaks.
func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the interactive single-form TUI. Each enter runs the pipeline
// once for the typed URL; runs never overlap. It returns when the user quits or ctx ends,
// after cancelling and waiting for a run still in flight.
func Run(ctx context.Context, runner pipeline.Runner) error {
	m := newAppModel(ctx, runner)
	defer func() {
		m.cancel()
		m.guard.closeAndWait()
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
