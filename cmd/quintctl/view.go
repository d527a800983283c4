package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rwirdemann/quintctl"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240"))

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
	Light: "#909090",
	Dark:  "#626262",
}).Padding(0, 1)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)

type tickMsg time.Time

type cycleMsg struct {
	readings []quintctl.Reading
	err      error
	at       time.Time
}

type registerRow struct {
	addr    uint16
	name    string
	value   string
	raw     string
	changed time.Time
}

// viewModel shows one row per monitored register. Rows are updated on every cycle, the
// Changed column only when the reading passed the change filter.
type viewModel struct {
	ctx      context.Context
	session  *quintctl.Session
	interval time.Duration
	raw      bool
	table    table.Model
	rows     []registerRow
	index    map[uint16]int
	polled   time.Time
	err      error
}

func newViewModel(ctx context.Context, session *quintctl.Session, interval time.Duration, raw bool) viewModel {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	columns := []table.Column{
		{Title: "Address", Width: 8},
		{Title: "Register", Width: 36},
		{Title: "Value", Width: 28},
		{Title: "Raw", Width: 14},
		{Title: "Changed", Width: 9},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	t.SetStyles(s)

	return viewModel{
		ctx:      ctx,
		session:  session,
		interval: interval,
		raw:      raw,
		table:    t,
		index:    make(map[uint16]int),
	}
}

func (m viewModel) poll() tea.Cmd {
	return func() tea.Msg {
		readings, err := m.session.Cycle(m.ctx)
		return cycleMsg{readings: readings, err: err, at: time.Now()}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m viewModel) Init() tea.Cmd { return m.poll() }

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-5, 3))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case cycleMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.apply(msg.readings, msg.at)
		m.table.SetRows(m.tableRows())
		return m, tickCmd(m.interval)

	case tickMsg:
		return m, m.poll()
	}

	return m, nil
}

func (m *viewModel) apply(readings []quintctl.Reading, at time.Time) {
	m.polled = at
	for _, r := range readings {
		def := r.Value.Def
		i, ok := m.index[def.Address]
		if !ok {
			i = len(m.rows)
			m.index[def.Address] = i
			m.rows = append(m.rows, registerRow{addr: def.Address, name: def.Name})
		}
		row := &m.rows[i]
		row.raw = fmt.Sprint(r.Words)
		if m.raw {
			row.value = quintctl.FormatRaw(def, r.Words)
		} else {
			row.value = quintctl.Format(r.Value)
			if bits := quintctl.SetBits(r.Value); len(bits) > 0 {
				row.value += " (" + strings.Join(bits, ", ") + ")"
			}
		}
		if r.Reported {
			row.changed = at
		}
	}
}

func (m viewModel) tableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		rows = append(rows, table.Row{
			fmt.Sprintf("0x%04X", r.addr),
			r.name,
			r.value,
			r.raw,
			r.changed.Format(time.TimeOnly),
		})
	}
	return rows
}

func (m viewModel) View() string {
	status := fmt.Sprintf("%d registers • polled %s • every %v", m.session.Registers(), m.polled.Format(time.TimeOnly), m.interval)
	view := baseStyle.Render(m.table.View()) + "\n" + helpStyle.Render(status+" • q - quit")
	if m.err != nil {
		view += "\n" + errorStyle.Render(m.err.Error())
	}
	return view + "\n"
}

// runView runs the monitor session as a full screen table until the user quits or ctx ends.
func runView(ctx context.Context, d *quintctl.Dispatcher, interval time.Duration, raw bool) error {
	if interval == 0 {
		interval = time.Second
	}

	p := tea.NewProgram(newViewModel(ctx, d.NewSession(), interval, raw), tea.WithAltScreen())
	stop := context.AfterFunc(ctx, p.Quit)
	defer stop()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if vm, ok := final.(viewModel); ok && vm.err != nil && !errors.Is(vm.err, context.Canceled) {
		return vm.err
	}
	return nil
}
