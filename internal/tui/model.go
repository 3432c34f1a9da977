// Package tui renders the lesson player: controls, timeline, and the
// chapter overlay. It binds key presses to the playback controller and
// holds no playback logic of its own.
package tui

import (
	"fmt"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lecternapp/lectern-server/internal/chapters"
	"github.com/lecternapp/lectern-server/internal/domain"
	"github.com/lecternapp/lectern-server/internal/keymap"
	"github.com/lecternapp/lectern-server/internal/player"
	"github.com/lecternapp/lectern-server/internal/progress"
)

// refreshInterval drives UI refresh. Independent of the progress-report
// cadence; the two consumers of time updates must not couple.
const refreshInterval = 250 * time.Millisecond

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for one mounted lesson.
type Model struct {
	lesson       *domain.Lesson
	controller   *player.Controller
	synchronizer *progress.Synchronizer
	index        *chapters.Index
	keys         *keymap.Handler

	bar    progressbar.Model
	filter textinput.Model
	width  int
}

// New builds the player shell for a mounted lesson.
func New(lesson *domain.Lesson, controller *player.Controller, synchronizer *progress.Synchronizer, seekStep, volumeStep float64) Model {
	filter := textinput.New()
	filter.Placeholder = "filter chapters"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	return Model{
		lesson:       lesson,
		controller:   controller,
		synchronizer: synchronizer,
		index:        chapters.New(lesson.Chapters),
		keys:         keymap.NewHandler(controller, seekStep, volumeStep),
		bar:          progressbar.New(progressbar.WithDefaultGradient()),
		filter:       filter,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.filter.Focused()

	switch msg.String() {
	case "ctrl+c", "q":
		if !filtering {
			m.synchronizer.Close()
			m.controller.Dispose()
			return m, tea.Quit
		}

	case "/":
		if !filtering {
			m.filter.Focus()
			return m, textinput.Blink
		}

	case "esc":
		if filtering {
			m.filter.Blur()
			m.filter.SetValue("")
			return m, nil
		}

	case "enter":
		if filtering {
			m.filter.Blur()
			if marker, ok := m.firstMatch(); ok {
				_ = m.index.SeekTo(m.controller, marker)
			}
			m.filter.SetValue("")
			return m, nil
		}
	}

	// The playback key layer is inert while the filter input has focus.
	if m.keys.Handle(msg, filtering) {
		return m, nil
	}

	if filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}

	// Unrecognized keys pass through untouched.
	return m, nil
}

// firstMatch returns the first chapter whose label contains the filter
// text, case-insensitively.
func (m Model) firstMatch() (domain.ChapterMarker, bool) {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if query == "" {
		return domain.ChapterMarker{}, false
	}
	for _, marker := range m.index.Markers() {
		if strings.Contains(strings.ToLower(marker.Label), query) {
			return marker, true
		}
	}
	return domain.ChapterMarker{}, false
}

// View implements tea.Model.
func (m Model) View() string {
	state := m.controller.State()
	caps := m.controller.Capabilities()

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.lesson.Title))
	b.WriteString("\n\n")

	if state.Phase == player.PhaseUnavailable {
		b.WriteString(errorStyle.Render("player unavailable"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q: quit"))
		return containerStyle.Render(b.String())
	}

	b.WriteString(m.bar.ViewAs(state.Fraction()))
	b.WriteString("\n")

	b.WriteString(timeStyle.Render(formatClock(state.PositionSeconds)))
	if state.DurationKnown() {
		b.WriteString(timeStyle.Render(" / " + formatClock(state.DurationSeconds)))
	}
	b.WriteString("  ")
	b.WriteString(phaseStyle.Render(m.statusLine(state)))
	b.WriteString("\n\n")

	m.renderChapters(&b, state)

	if m.filter.Focused() {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render(m.helpLine(caps)))
	return containerStyle.Render(b.String())
}

func (m Model) statusLine(state player.State) string {
	parts := []string{string(state.Phase)}
	if state.Muted {
		parts = append(parts, "muted")
	} else {
		parts = append(parts, fmt.Sprintf("vol %d%%", int(state.Volume*100)))
	}
	if state.PlaybackRate != 1 {
		parts = append(parts, fmt.Sprintf("%gx", state.PlaybackRate))
	}
	if state.Fullscreen {
		parts = append(parts, "fullscreen")
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderChapters(b *strings.Builder, state player.State) {
	if m.index.Len() == 0 {
		return
	}

	current, hasCurrent := m.index.Current(state.PositionSeconds)
	for _, marker := range m.index.Markers() {
		line := fmt.Sprintf("%s  %s", formatClock(marker.TimestampSeconds), marker.Label)
		if hasCurrent && marker.TimestampSeconds == current.TimestampSeconds {
			b.WriteString(currentChapterStyle.Render("▸ " + line))
		} else {
			b.WriteString(chapterStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// helpLine lists only the controls the active backend can honor.
func (m Model) helpLine(caps player.Capabilities) string {
	parts := []string{"space: play/pause"}
	if caps.CanSeek {
		parts = append(parts, "←/→: seek")
	}
	if caps.CanSetVolume {
		parts = append(parts, "↑/↓: volume", "m: mute")
	}
	if caps.CanFullscreen {
		parts = append(parts, "f: fullscreen")
	}
	if m.index.Len() > 0 {
		parts = append(parts, "/: chapters")
	}
	parts = append(parts, "q: quit")
	return strings.Join(parts, "  ")
}

// formatClock renders seconds as m:ss or h:mm:ss.
func formatClock(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	mn := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mn, s)
	}
	return fmt.Sprintf("%d:%02d", mn, s)
}
