package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "mindtrack/internal/modules/session/dto"
	apperrors "mindtrack/internal/platform/errors"
	"mindtrack/internal/ui/components"
	"mindtrack/internal/ui/theme"
)

const (
	refreshEvery = time.Second
	barWidth     = 40
	actionWait   = 45 * time.Second
)

// SessionPort is what the dashboard needs from the session module.
type SessionPort interface {
	Start(ctx context.Context, totalMinutes int, args []string) (sessiondto.SessionOutput, error)
	Current(ctx context.Context) (sessiondto.CurrentOutput, error)
	Complete(ctx context.Context) (sessiondto.AdvanceOutput, error)
	Backlog(ctx context.Context) (sessiondto.AdvanceOutput, error)
	TogglePause(ctx context.Context) (sessiondto.SessionOutput, error)
	Summary(ctx context.Context) (sessiondto.SummaryOutput, error)
	Record(ctx context.Context, emotion string) (sessiondto.EmotionOutput, error)
	Reschedule(ctx context.Context) (sessiondto.RescheduleOutput, error)
	Delete(ctx context.Context) error
	CheckAllocator(ctx context.Context) sessiondto.AllocatorStatusOutput
}

type tickMsg time.Time

type refreshedMsg struct {
	current sessiondto.CurrentOutput
	summary sessiondto.SummaryOutput
	err     error
}

type actionMsg struct {
	status string
	err    error
}

// triggerMsg reports a ready reschedule trigger after an emotion is recorded.
type triggerMsg struct{ message string }

type keyMap struct {
	Pause      key.Binding
	Complete   key.Binding
	Backlog    key.Binding
	Reschedule key.Binding
	Palette    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Pause:      key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p", "pause/resume")),
		Complete:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete topic")),
		Backlog:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "backlog topic")),
		Reschedule: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reschedule")),
		Palette:    key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Complete, k.Backlog, k.Reschedule, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Complete, k.Backlog},
		{k.Reschedule, k.Palette},
		{k.Help, k.Quit},
	}
}

// Model is the live study dashboard. It polls the session once a second and
// never mutates timer state on its own; every change goes through SessionPort.
type Model struct {
	session SessionPort

	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette

	current   sessiondto.CurrentOutput
	summary   sessiondto.SummaryOutput
	hasActive bool
	status    string
	trigger   string
	width     int
	height    int
}

func NewModel(session SessionPort) Model {
	return Model{
		session: session,
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(),
		status:  "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		if _, ok := msg.(tickMsg); !ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(msg.Width-4, 80))

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), tick())

	case refreshedMsg:
		switch {
		case msg.err == nil:
			m.hasActive = true
			m.current = msg.current
			m.summary = msg.summary
		case errors.Is(msg.err, apperrors.ErrNoActiveSession):
			m.hasActive = false
		default:
			m.status = "refresh: " + msg.err.Error()
		}

	case triggerMsg:
		m.trigger = msg.message
		m.status = "press r to reschedule"
		return m, m.refreshCmd()

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = msg.status
		}
		return m, m.refreshCmd()

	case components.PaletteSubmitMsg:
		return m, m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case !m.hasActive:
			m.status = "no active session; press : and use start"
		case key.Matches(msg, m.keys.Pause):
			return m, m.pauseCmd()
		case key.Matches(msg, m.keys.Complete):
			return m, m.advanceCmd(true)
		case key.Matches(msg, m.keys.Backlog):
			return m, m.advanceCmd(false)
		case key.Matches(msg, m.keys.Reschedule):
			m.status = "rescheduling..."
			m.trigger = ""
			return m, m.rescheduleCmd()
		}
	}
	return m, nil
}

func (m Model) View() string {
	var content string
	switch {
	case m.showHelp:
		content = m.help.FullHelpView(m.keys.FullHelp())
	case m.palette.Visible():
		content = lipgloss.Place(max(m.width, 1), max(m.height-4, 1), lipgloss.Center, lipgloss.Center, m.palette.View())
	case !m.hasActive:
		content = theme.Pane.Render(theme.Muted.Render("No active session. Press : then start <minutes> Subject:Topic[:level]..."))
	default:
		content = lipgloss.JoinVertical(lipgloss.Left, m.renderTimer(), m.renderTopics())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), content, m.renderStatusBar())
}

func (m Model) renderHeader() string {
	title := theme.Title.Render("mindtrack")
	if !m.hasActive {
		return title + "\n"
	}
	state := theme.StateStyle(m.current.State).Render(m.current.State)
	return fmt.Sprintf("%s  %s  %s\n", title, state, theme.Muted.Render(m.current.SessionID))
}

func (m Model) renderTimer() string {
	topic := m.current.Topic
	var sb strings.Builder
	sb.WriteString(theme.Hot.Render(topic.Subject+" / "+topic.Name) + "\n")
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("topic %d of %d  level %s", m.current.TopicIndex+1, m.current.TotalTopics, topic.Level)) + "\n\n")
	sb.WriteString(FormatClock(m.current.RemainingSeconds) + "  " + ProgressBar(topic.TimeMinutes*60, m.current.RemainingSeconds, barWidth) + "\n")
	if m.trigger != "" {
		sb.WriteString("\n" + theme.Alert.Render("! "+m.trigger) + "\n")
	}
	if len(m.summary.EmotionTimeline) > 0 {
		recent := m.summary.EmotionTimeline
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		sb.WriteString("\n" + theme.Muted.Render("recent: "+strings.Join(recent, ", ")))
	}
	return theme.PaneActive.Render(sb.String())
}

func (m Model) renderTopics() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Schedule") + "\n")
	for i, t := range m.summary.Topics {
		marker := "  "
		if i == m.current.TopicIndex {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-28s %3d min  %s", marker, truncate(t.Subject+" / "+t.Name, 28), t.TimeMinutes, t.Status)
		switch t.Status {
		case "completed":
			line = theme.Done.Render(line)
		case "backlog":
			line = theme.Alert.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("\nstudied %d of %d min  reschedules %d",
		m.summary.StudiedMinutes, m.summary.TotalAllocatedMinutes, m.summary.RescheduleCount)))
	return theme.Pane.Render(sb.String())
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return "\n" + left + strings.Repeat(" ", gap) + right
}

// executePalette runs a typed command line.
func (m Model) executePalette(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	switch parts[0] {
	case "start":
		if len(parts) < 3 {
			return status("usage: start <minutes> <Subject:Topic[:level]>...")
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil {
			return status("minutes must be a number")
		}
		args := parts[2:]
		return m.run(func(ctx context.Context) (string, error) {
			out, err := m.session.Start(ctx, minutes, args)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("session started with %d topics", len(out.Topics)), nil
		})
	case "record":
		if len(parts) != 2 {
			return status("usage: record <emotion>")
		}
		emotion := parts[1]
		session := m.session
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionWait)
			defer cancel()
			out, err := session.Record(ctx, emotion)
			switch {
			case err != nil:
				return actionMsg{err: err}
			case out.Trigger.Ready:
				return triggerMsg{message: out.Trigger.Message}
			}
			return actionMsg{status: "recorded " + out.Emotion}
		}
	case "reschedule":
		return m.rescheduleCmd()
	case "delete":
		return m.run(func(ctx context.Context) (string, error) {
			return "session deleted", m.session.Delete(ctx)
		})
	case "check":
		return m.run(func(ctx context.Context) (string, error) {
			out := m.session.CheckAllocator(ctx)
			if out.Connected {
				return "allocator connected: " + out.Model, nil
			}
			return "allocator unavailable: " + out.Message, nil
		})
	}
	return status("unknown command: " + parts[0])
}

func (m Model) refreshCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx := context.Background()
		current, err := session.Current(ctx)
		if err != nil {
			return refreshedMsg{err: err}
		}
		summary, err := session.Summary(ctx)
		return refreshedMsg{current: current, summary: summary, err: err}
	}
}

func (m Model) pauseCmd() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		out, err := m.session.TogglePause(ctx)
		if err != nil {
			return "", err
		}
		return "session " + out.State, nil
	})
}

func (m Model) advanceCmd(completed bool) tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		var (
			out sessiondto.AdvanceOutput
			err error
		)
		if completed {
			out, err = m.session.Complete(ctx)
		} else {
			out, err = m.session.Backlog(ctx)
		}
		switch {
		case err != nil:
			return "", err
		case out.Finished:
			return "session complete", nil
		case out.Next != nil:
			return "next: " + out.Next.Subject + " / " + out.Next.Name, nil
		}
		return "topic updated", nil
	})
}

func (m Model) rescheduleCmd() tea.Cmd {
	return m.run(func(ctx context.Context) (string, error) {
		out, err := m.session.Reschedule(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rescheduled %d topics across %d min", out.TopicsAffected, out.RemainingMinutes), nil
	})
}

func (m Model) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionWait)
		defer cancel()
		msg, err := fn(ctx)
		return actionMsg{status: msg, err: err}
	}
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return actionMsg{status: text} }
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ProgressBar shows elapsed time of a topic as a filled bar.
func ProgressBar(totalSeconds, remainingSeconds, width int) string {
	filled := 0
	if totalSeconds > 0 {
		elapsed := min(max(totalSeconds-remainingSeconds, 0), totalSeconds)
		filled = elapsed * width / totalSeconds
	}
	return theme.BarFilled.Render(strings.Repeat("█", filled)) + theme.BarEmpty.Render(strings.Repeat("░", width-filled))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
