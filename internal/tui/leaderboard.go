package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bcdxn/f1sim/internal/domain"
	"github.com/bcdxn/f1sim/internal/tui/styles"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

var (
	s = styles.Default()
)

// NewLeaderboard returns the bubbletea program rendering the race leaderboard.
func NewLeaderboard(opts ...TUIOption) *tea.Program {
	l := newLeaderboard(opts...)
	return tea.NewProgram(l, tea.WithContext(l.ctx), tea.WithAltScreen())
}

func newLeaderboard(opts ...TUIOption) Leaderboard {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	l := Leaderboard{
		logger:  slog.Default(),
		ctx:     context.Background(),
		loading: true,
		spinner: sp,
		table:   newTable(),
		width:   120,
	}
	// apply given options
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

type TUIOption = func(c *Leaderboard)

// WithLogger configures the logger to use within the TUI program
func WithLogger(l *slog.Logger) TUIOption {
	return func(b *Leaderboard) { b.logger = l }
}

// WithContext configures the context to use within the TUI program
func WithContext(ctx context.Context) TUIOption {
	return func(b *Leaderboard) { b.ctx = ctx }
}

/* Bubbletea Interface Implementation
------------------------------------------------------------------------------------------------- */

func (l Leaderboard) Init() tea.Cmd {
	return l.spinner.Tick
}

func (l Leaderboard) View() string {
	if l.err != "" {
		return s.Doc.Render(s.Red.Render(l.err))
	}
	if l.loading {
		return s.Doc.Render(fmt.Sprintf("%s Connecting to the race simulator...", l.spinner.View()))
	}
	return s.Doc.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		titleView(l),
		subtitleView(l),
		flagView(l),
		raceCtrlView(l),
		l.table.View(),
	))
}

func (l Leaderboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyMsg(l, msg)
	case tea.WindowSizeMsg:
		return handleWindowSizeMsg(l, msg)
	case RaceMsg:
		return handleRaceMsg(l, msg)
	case IncidentsMsg:
		return handleIncidentsMsg(l, msg)
	case ErrMsg:
		l.err = msg.Err.Error()
		return l, nil
	default:
		var cmd tea.Cmd
		if l.loading {
			l.spinner, cmd = l.spinner.Update(msg)
		}
		return l, cmd
	}
}

/* Tea Mesage Types
------------------------------------------------------------------------------------------------- */

type RaceMsg domain.Snapshot
type IncidentsMsg []domain.IncidentSnapshot
type ErrMsg struct {
	Err error
}

/* Tea Mesage handlers
------------------------------------------------------------------------------------------------- */

func handleKeyMsg(m Leaderboard, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.logger.Debug("received quit tea message")
		return m, tea.Quit
	}
	return m, nil
}

func handleWindowSizeMsg(m Leaderboard, msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	h, _ := s.Doc.GetFrameSize()
	m.width = msg.Width - h
	return m, nil
}

func handleRaceMsg(m Leaderboard, msg RaceMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.race = domain.Snapshot(msg)
	m.table = m.table.WithRows(driverRows(m.race))
	// the latest incident also arrives with each snapshot; keep it in case the incidents message
	// is missed, e.g. when joining a stream late
	if n := len(m.race.Incidents); n > 0 && m.lastIncident.Timestamp.IsZero() {
		m.lastIncident = m.race.Incidents[n-1]
	}
	return m, nil
}

func handleIncidentsMsg(m Leaderboard, msg IncidentsMsg) (tea.Model, tea.Cmd) {
	if len(msg) > 0 {
		m.lastIncident = msg[len(msg)-1]
		m.logger.Debug("race control", "type", m.lastIncident.Type, "desc", m.lastIncident.Description)
	}
	return m, nil
}

/* View Helper Functions
------------------------------------------------------------------------------------------------- */

func titleView(m Leaderboard) string {
	return s.TitleBar.Width(m.width).Render(fmt.Sprintf("%s · %s", m.race.RaceName, m.race.Location))
}

func subtitleView(m Leaderboard) string {
	status := fmt.Sprintf("Lap %d / %d  (%.1f%%)", m.race.CurrentLap, m.race.TotalLaps, m.race.RaceCompletionPercent)
	if m.race.Finished {
		status = "🏁 Race finished 🏁"
	}
	return s.SubtitleBar.Width(m.width).Render(status)
}

func flagView(m Leaderboard) string {
	switch {
	case m.race.SafetyCarActive:
		return s.FlagBanner.BorderForeground(s.Color.Yellow).Foreground(s.Color.Yellow).Width(m.width - 2).Render("SAFETY CAR")
	case len(m.race.YellowFlagSectors) > 0:
		sectors := make([]string, len(m.race.YellowFlagSectors))
		for i, sec := range m.race.YellowFlagSectors {
			sectors[i] = "S" + strconv.Itoa(sec)
		}
		return s.FlagBanner.BorderForeground(s.Color.Yellow).Foreground(s.Color.Yellow).Width(m.width - 2).
			Render("🟨 Yellow Flag " + strings.Join(sectors, " ") + " 🟨")
	case m.race.Finished:
		return s.FlagBanner.Width(m.width - 2).Render("Chequered Flag")
	}
	return s.FlagBanner.BorderForeground(s.Color.Green).Foreground(s.Color.Green).Width(m.width - 2).Render("🟩 Green Flag 🟩")
}

func raceCtrlView(m Leaderboard) string {
	if m.lastIncident.Description == "" {
		return ""
	}
	title := m.lastIncident.Type.Title()
	body := fmt.Sprintf("Lap %d  %s", m.lastIncident.Lap, m.lastIncident.Description)
	return lipgloss.JoinHorizontal(
		lipgloss.Center,
		s.ToastMsgTitle.Render(title),
		s.ToastMsgBody.Render(body),
	)
}

func driverRows(race domain.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(race.Drivers))
	fastest := fastestLapOwner(race)
	for _, d := range race.Drivers {
		name := d.Name
		if d.Number == fastest {
			name = fmt.Sprintf("%s %s", name, s.Purple.Render("⏱"))
		}
		last := d.LastLapTime
		if last == "" {
			last = "-"
		}
		rows = append(rows, table.NewRow(table.RowData{
			"position": d.Position,
			"number":   d.Number,
			"code":     d.ShortName,
			"driver":   name,
			"team":     d.Team,
			"leader":   dashIfEmpty(d.GapToLeader),
			"interval": dashIfEmpty(d.Interval),
			"lastlap":  last,
			"bestlap":  dashIfEmpty(d.BestLapTime),
			"tire":     table.NewStyledCell(tireLabel(d.TireCompound), s.Tire(d.TireCompound)),
			"age":      d.TireAge,
			"pits":     d.PitStops,
			"status":   table.NewStyledCell(d.Status.String(), s.Status(d.Status)),
		}))
	}
	return rows
}

// fastestLapOwner returns the number of the running driver holding the fastest lap of the race.
func fastestLapOwner(race domain.Snapshot) string {
	owner, best := "", ""
	for _, d := range race.Drivers {
		if d.DNF || d.BestLapTime == "" {
			continue
		}
		// formatted lap times of equal length compare like numbers
		if best == "" || len(d.BestLapTime) < len(best) ||
			(len(d.BestLapTime) == len(best) && d.BestLapTime < best) {
			owner, best = d.Number, d.BestLapTime
		}
	}
	return owner
}

// tireLabel abbreviates a compound to its initial, e.g. SOFT -> S.
func tireLabel(c domain.TireCompound) string {
	if c == "" {
		return "-"
	}
	return string(c)[:1]
}

func dashIfEmpty(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

/* Private Helper Functions
------------------------------------------------------------------------------------------------- */

func newTable() table.Model {
	return table.New([]table.Column{
		table.NewColumn("position", "POS", 4),
		table.NewColumn("number", "NO", 4),
		table.NewColumn("code", "", 5),
		table.NewColumn("driver", "DRIVER", 20).WithStyle(lipgloss.NewStyle().Align(lipgloss.Left)),
		table.NewColumn("team", "TEAM", 16).WithStyle(lipgloss.NewStyle().Align(lipgloss.Left)),
		table.NewColumn("leader", "LEADER", 9),
		table.NewColumn("interval", "INT", 9),
		table.NewColumn("lastlap", "LAST", 10),
		table.NewColumn("bestlap", "BEST", 10),
		table.NewColumn("tire", "T", 3),
		table.NewColumn("age", "AGE", 4),
		table.NewColumn("pits", "PIT", 4),
		table.NewColumn("status", "STATUS", 8),
	}).
		WithRows([]table.Row{}).
		WithBaseStyle(lipgloss.NewStyle().AlignHorizontal(lipgloss.Center))
}

/* Type Definitions
------------------------------------------------------------------------------------------------- */

type Leaderboard struct {
	race         domain.Snapshot
	lastIncident domain.IncidentSnapshot
	loading      bool
	err          string
	width        int
	spinner      spinner.Model
	table        table.Model
	logger       *slog.Logger
	ctx          context.Context
}
