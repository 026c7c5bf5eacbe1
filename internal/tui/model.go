package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mt4110/split-video/internal/config"
	"github.com/mt4110/split-video/internal/watcher"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E3C4B")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626"))
)

const maxHistory = 50

type tickMsg time.Time

type queued struct {
	name string
	path string
}

// Model is the watch-mode dashboard: pending files, running splits and a
// history of finished ones.
type Model struct {
	cfg *config.Config

	queue   []queued
	active  map[string]time.Time
	history []string

	done, failed, segments int

	cursor int
	now    time.Time

	sub chan interface{} // watcher events
}

func NewModel(cfg *config.Config, sub chan interface{}) Model {
	return Model{
		cfg:    cfg,
		active: map[string]time.Time{},
		sub:    sub,
		now:    time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForActivity(m.sub))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.queue)-1 {
				m.cursor++
			}
		}
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case watcher.FileFoundEvent:
		m.queue = append(m.queue, queued{name: msg.Name, path: msg.Path})

	case watcher.StartSplitEvent:
		m.dequeue(msg.Path)
		m.active[msg.Path] = time.Now()
		m.record("🚀 Splitting: " + filepath.Base(msg.Path))

	case watcher.SuccessEvent:
		delete(m.active, msg.Path)
		m.done++
		m.segments += msg.Segments
		m.record(fmt.Sprintf("✅ Done: %s (%d segments)", filepath.Base(msg.Path), msg.Segments))

	case watcher.FailureEvent:
		delete(m.active, msg.Path)
		m.failed++
		line := "❌ Failed: " + filepath.Base(msg.Path)
		if msg.Err != nil {
			line += " " + errStyle.Render(msg.Err.Error())
		}
		m.record(line)

	default:
		return m, nil
	}
	return m, waitForActivity(m.sub)
}

// dequeue drops path from the queue. The watcher reports absolute paths
// while queue entries may be relative.
func (m *Model) dequeue(path string) {
	for i, q := range m.queue {
		if q.path == path || strings.HasSuffix(path, string(filepath.Separator)+q.path) {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	if m.cursor >= len(m.queue) && m.cursor > 0 {
		m.cursor = len(m.queue) - 1
	}
}

func (m *Model) record(line string) {
	m.history = append([]string{line}, m.history...)
	if len(m.history) > maxHistory {
		m.history = m.history[:maxHistory]
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("✂ Split Video TUI") + "\n\n")

	fmt.Fprintf(&b, "監視中: %s\n", strings.Join(m.cfg.WatchDirs, ", "))
	fmt.Fprintf(&b, "分割時長: %d 秒 / 出力先: %s\n", m.cfg.SegmentSeconds, m.cfg.WorkDir)
	if m.cfg.AutoSave {
		fmt.Fprintf(&b, "自動保存: アルバム「%s」\n", m.cfg.Album)
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("完了 %d / 失敗 %d / セグメント %d", m.done, m.failed, m.segments)) + "\n\n")

	b.WriteString("処理待ちキュー:\n")
	if len(m.queue) == 0 {
		b.WriteString(statusStyle.Render("  (なし)") + "\n")
	}
	for i, q := range m.queue {
		cursor := "  "
		if m.cursor == i {
			cursor = cursorStyle.Render("> ")
		}
		b.WriteString(cursor + q.name + "\n")
	}

	if len(m.active) > 0 {
		b.WriteString("\n処理中:\n")
		for path, started := range m.active {
			elapsed := m.now.Sub(started)
			if elapsed < 0 {
				elapsed = 0
			}
			fmt.Fprintf(&b, "  %s %s\n", filepath.Base(path), statusStyle.Render(elapsed.Round(time.Second).String()))
		}
	}

	b.WriteString("\n最近の履歴:\n")
	if len(m.history) == 0 {
		b.WriteString(statusStyle.Render("  (履歴なし)") + "\n")
	}
	for _, h := range m.history {
		b.WriteString("  " + h + "\n")
	}

	b.WriteString("\n操作: [q] 終了  [↑/↓] 選択\n")
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForActivity(sub chan interface{}) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}
