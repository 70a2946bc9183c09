package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/delaysim/internal/sim"
)

const (
	barWidth  = 40
	histWidth = 40
)

// RunMsg carries one finished run into the model.
type RunMsg sim.RunResult

// DoneMsg reports the end of the ensemble.
type DoneMsg struct{ Err error }

type tickMsg time.Time

// Observer forwards finished runs to a running program.
type Observer struct {
	p *tea.Program
}

func NewObserver(p *tea.Program) *Observer { return &Observer{p: p} }

func (o *Observer) OnRun(r sim.RunResult) { o.p.Send(RunMsg(r)) }

// EnsembleModel tracks the progress of an ensemble.
type EnsembleModel struct {
	title     string
	total     int
	component int
	cancel    func()

	done    int
	failed  int
	finals  []float64
	start   time.Time
	elapsed time.Duration
	err     error
	over    bool
}

// NewEnsembleModel watches total runs and histograms the final value of
// component. cancel is called when the user quits early.
func NewEnsembleModel(title string, total, component int, cancel func()) EnsembleModel {
	return EnsembleModel{
		title:     title,
		total:     total,
		component: component,
		cancel:    cancel,
		start:     time.Now(),
		finals:    make([]float64, 0, total),
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m EnsembleModel) Init() tea.Cmd { return tick() }

func (m EnsembleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case RunMsg:
		m.done++
		if msg.Err != nil {
			m.failed++
		} else if m.component < len(msg.Final) {
			m.finals = append(m.finals, msg.Final[m.component])
		}
	case DoneMsg:
		m.over = true
		m.err = msg.Err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	case tickMsg:
		if m.over {
			return m, nil
		}
		m.elapsed = time.Since(m.start)
		return m, tick()
	}
	return m, nil
}

// Done returns the number of finished runs.
func (m EnsembleModel) Done() int { return m.done }

func (m EnsembleModel) Err() error { return m.err }

func (m EnsembleModel) View() string {
	var sb strings.Builder

	sb.WriteString(Title.Render(m.title))
	sb.WriteString("\n\n")

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	sb.WriteString(ProgressBar(frac, barWidth))
	sb.WriteString(fmt.Sprintf(" %d/%d\n\n", m.done, m.total))

	rate := 0.0
	if s := m.elapsed.Seconds(); s > 0 {
		rate = float64(m.done) / s
	}
	row := func(label, value string) {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, MetricLabel.Render(label), MetricValue.Render(value)))
		sb.WriteString("\n")
	}
	row("elapsed", m.elapsed.Round(time.Millisecond).String())
	row("runs/s", fmt.Sprintf("%.1f", rate))
	row("failed", fmt.Sprintf("%d", m.failed))
	if len(m.finals) > 1 {
		mean, std := stat.MeanStdDev(m.finals, nil)
		row(fmt.Sprintf("mean x%d", m.component), fmt.Sprintf("%.4f", mean))
		row(fmt.Sprintf("std x%d", m.component), fmt.Sprintf("%.4f", std))
		sb.WriteString("\n")
		sb.WriteString(Sparkline(histogram(m.finals, histWidth)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case !m.over:
		sb.WriteString(StatusRunning.Render("running"))
	case m.err != nil:
		sb.WriteString(StatusFailed.Render("failed: " + m.err.Error()))
	case m.done < m.total:
		sb.WriteString(StatusCanceled.Render("canceled"))
	default:
		sb.WriteString(StatusRunning.Render("done"))
	}
	sb.WriteString("\n")
	sb.WriteString(KeyHint.Render("q: cancel"))

	return Panel.Render(sb.String())
}

// histogram counts values into n equal bins between their extremes.
func histogram(values []float64, n int) []float64 {
	counts := make([]float64, n)
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	width := (hi - lo) / float64(n)
	for _, v := range values {
		i := n - 1
		if width > 0 {
			i = min(int((v-lo)/width), n-1)
		}
		counts[i]++
	}
	return counts
}
