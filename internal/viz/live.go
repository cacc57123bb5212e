package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/iqcert/internal/iqc"
)

type solve struct {
	gamma    float64
	feasible bool
}

type outcome struct {
	result *iqc.Result
	err    error
}

type TickMsg time.Time

type progressMsg solve

type doneMsg outcome

// Model is a live view of a running gain search: the candidate trace as
// it streams in, the current bracket, and the outcome.
type Model struct {
	scenario string
	start    time.Time

	progress chan solve
	done     chan outcome

	solves   []solve
	frame    int
	finished bool
	result   *iqc.Result
	err      error
}

// NewModel wires a live view around an analysis call. The run callback
// executes on its own goroutine and reports every solve through the
// progress function it receives.
func NewModel(scenario string, run func(progress func(gamma float64, feasible bool)) (*iqc.Result, error)) Model {
	m := Model{
		scenario: scenario,
		start:    time.Now(),
		progress: make(chan solve, 64),
		done:     make(chan outcome, 1),
	}
	go func() {
		res, err := run(func(gamma float64, feasible bool) {
			// Never block the analysis on the view: if it was aborted or
			// has fallen behind, drop the update. The complete trace is in
			// the result.
			select {
			case m.progress <- solve{gamma: gamma, feasible: feasible}:
			default:
			}
		})
		m.done <- outcome{result: res, err: err}
	}()
	return m
}

// Result returns the analysis outcome once the view has quit.
func (m Model) Result() (*iqc.Result, error) {
	return m.result, m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.listen())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/15, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// listen prefers pending solves over the final outcome so the trace is
// complete before the view quits.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.progress:
			return progressMsg(s)
		default:
		}
		select {
		case s := <-m.progress:
			return progressMsg(s)
		case o := <-m.done:
			return doneMsg(o)
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case TickMsg:
		m.frame++
		if !m.finished {
			return m, m.tick()
		}
	case progressMsg:
		m.solves = append(m.solves, solve(msg))
		return m, m.listen()
	case doneMsg:
		for {
			select {
			case s := <-m.progress:
				m.solves = append(m.solves, s)
				continue
			default:
			}
			break
		}
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// bracket derives the current search interval from the trace: the largest
// infeasible and the smallest feasible level seen so far.
func (m Model) bracket() (lo, hi float64) {
	hi = math.Inf(1)
	for _, s := range m.solves {
		if s.feasible {
			if s.gamma < hi {
				hi = s.gamma
			}
		} else if s.gamma > lo {
			lo = s.gamma
		}
	}
	return lo, hi
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render("GAIN SEARCH · "+m.scenario) + "\n\n")

	status := StatusRunning.Render(AnimatedSpinner(m.frame) + " solving")
	if m.finished {
		status = Subtle.Render("done")
	}
	elapsed := time.Since(m.start).Round(100 * time.Millisecond)
	s.WriteString(fmt.Sprintf("  %s   %s %s   %s %d\n\n",
		status,
		MetricLabel.Render("elapsed"), MetricValue.Render(elapsed.String()),
		MetricLabel.Render("solves"), len(m.solves)))

	gammas := make([]float64, len(m.solves))
	for i, sv := range m.solves {
		gammas[i] = sv.gamma
	}
	feasible := make([]bool, len(m.solves))
	for i, sv := range m.solves {
		feasible[i] = sv.feasible
	}
	s.WriteString("  " + SparklineChart(gammas, 48) + "\n")
	s.WriteString("  " + FeasibleMarks(feasible, 48) + "\n\n")

	lo, hi := m.bracket()
	hiStr := "∞"
	if !math.IsInf(hi, 1) {
		hiStr = fmt.Sprintf("%.6g", hi)
	}
	s.WriteString(fmt.Sprintf("  %s [%s, %s]\n",
		MetricLabel.Render("bracket"),
		MetricValue.Render(fmt.Sprintf("%.6g", lo)),
		MetricValue.Render(hiStr)))

	if n := len(m.solves); n > 0 {
		last := m.solves[n-1]
		mark := Infeasible.Render("infeasible")
		if last.feasible {
			mark = Feasible.Render("feasible")
		}
		s.WriteString(fmt.Sprintf("  %s %s %s\n",
			MetricLabel.Render("last"),
			MetricValue.Render(fmt.Sprintf("%.6g", last.gamma)), mark))
	}

	s.WriteString("\n" + KeyHint.Render("q to abort") + "\n")
	return s.String()
}
