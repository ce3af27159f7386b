package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/odestep/internal/stepper"
)

const historyLen = 120

// EventMsg carries one slab attempt into the live view.
type EventMsg stepper.Event

// DoneMsg ends the live view.
type DoneMsg struct {
	Report stepper.Report
	Err    error
}

type TickMsg time.Time

// Progress is the Bubble Tea model of a running solve.
type Progress struct {
	styles  Styles
	problem string
	endTime float64

	time, progress float64
	accepted       int
	diverged       int
	rejected       int
	lengths        []float64
	frame          int
	started        time.Time

	done     bool
	quit     bool
	report   stepper.Report
	err      error
	width    int
	onCancel func()
}

// NewProgress creates the live view. onCancel runs when the user quits
// before the run is done.
func NewProgress(styles Styles, problem string, endTime float64, onCancel func()) Progress {
	return Progress{
		styles:   styles,
		problem:  problem,
		endTime:  endTime,
		started:  time.Now(),
		width:    80,
		onCancel: onCancel,
	}
}

// Observer forwards stepper events to a running program.
func Observer(p *tea.Program) stepper.Observer {
	return stepper.ObserverFunc(func(ev stepper.Event) { p.Send(EventMsg(ev)) })
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Progress) Init() tea.Cmd { return tick() }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done && m.onCancel != nil {
				m.onCancel()
			}
			m.quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case EventMsg:
		m.apply(stepper.Event(msg))
	case DoneMsg:
		m.done, m.report, m.err = true, msg.Report, msg.Err
		return m, tea.Quit
	case TickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m *Progress) apply(ev stepper.Event) {
	m.time, m.progress = ev.Time, ev.Progress
	switch ev.Kind {
	case stepper.Accepted:
		m.accepted++
		m.lengths = append(m.lengths, ev.Length)
		if len(m.lengths) > historyLen {
			m.lengths = m.lengths[1:]
		}
	case stepper.Diverged:
		m.diverged++
	case stepper.Rejected:
		m.rejected++
	}
}

func (m Progress) Done() bool             { return m.done }
func (m Progress) Quit() bool             { return m.quit }
func (m Progress) Err() error             { return m.err }
func (m Progress) Report() stepper.Report { return m.report }

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Progress) View() string {
	s := m.styles
	barWidth := max(10, min(m.width-20, 60))

	var b strings.Builder
	status := s.Title.Render(spinner[m.frame%len(spinner)] + " solving")
	switch {
	case m.err != nil:
		status = s.Error.Render("✗ " + m.err.Error())
	case m.done:
		status = s.Success.Render("✓ done")
	}
	fmt.Fprintf(&b, "%s  %s\n\n", s.Title.Render(m.problem), status)
	fmt.Fprintf(&b, "%s %5.1f%%\n", ProgressBar(s, m.progress, barWidth), 100*m.progress)
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("t      "), s.Value.Render(fmt.Sprintf("%.6g / %.6g", m.time, m.endTime)))
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("slabs  "), s.Value.Render(fmt.Sprintf("%d accepted, %d diverged, %d rejected", m.accepted, m.diverged, m.rejected)))
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("elapsed"), s.Value.Render(time.Since(m.started).Round(time.Millisecond).String()))
	fmt.Fprintf(&b, "%s %s\n", s.Label.Render("k      "), Sparkline(m.lengths, barWidth))
	b.WriteString("\n" + s.Subtle.Render("q to stop"))
	return s.Panel.Render(b.String()) + "\n"
}
