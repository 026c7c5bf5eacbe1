package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mt4110/split-video/internal/picker"
	"github.com/mt4110/split-video/internal/split"
)

var (
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#707070"))
	barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563EB"))
)

// PickerModel lists library videos and lets the user choose one.
type PickerModel struct {
	videos   []picker.VideoInfo
	cursor   int
	offset   int
	height   int
	chosen   *picker.VideoInfo
	canceled bool
}

func NewPicker(videos []picker.VideoInfo) PickerModel {
	return PickerModel{videos: videos, height: 15}
}

func (m PickerModel) Init() tea.Cmd { return nil }

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// title, blank, footer
		if h := msg.Height - 4; h > 0 {
			m.height = h
		}
		m.scroll()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.videos)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.videos) > 0 {
				v := m.videos[m.cursor]
				m.chosen = &v
			}
			return m, tea.Quit
		}
		m.scroll()
	}
	return m, nil
}

func (m *PickerModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m PickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("✂ 動画を選択") + "\n\n")

	if len(m.videos) == 0 {
		b.WriteString(statusStyle.Render("  ライブラリに動画がありません (MP4, MOV, AVI など)") + "\n")
	}
	end := m.offset + m.height
	if end > len(m.videos) {
		end = len(m.videos)
	}
	for i := m.offset; i < end; i++ {
		v := m.videos[i]
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, v.Name, dimStyle.Render(fmt.Sprintf("(%s, %s)", v.SizeMB(), filepath.Dir(v.Path))))
	}

	b.WriteString("\n操作: [↑/↓] 移動  [Enter] 選択  [q] キャンセル\n")
	return b.String()
}

// Chosen returns the selected video; ok is false when the user cancelled.
func (m PickerModel) Chosen() (picker.VideoInfo, bool) {
	if m.chosen == nil || m.canceled {
		return picker.VideoInfo{}, false
	}
	return *m.chosen, true
}

// Pick runs the picker on the terminal.
func Pick(videos []picker.VideoInfo) (picker.VideoInfo, bool, error) {
	final, err := tea.NewProgram(NewPicker(videos)).Run()
	if err != nil {
		return picker.VideoInfo{}, false, err
	}
	v, ok := final.(PickerModel).Chosen()
	return v, ok, nil
}

// ProgressLine renders split progress as a single line for plain terminals.
func ProgressLine(p split.Progress, width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(p.Percentage / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)

	status := "処理中..."
	if !p.IsProcessing {
		status = "完了"
	}
	if p.Total > 0 {
		return fmt.Sprintf("%s %5.1f%% セグメント %d/%d %s", bar, p.Percentage, p.Current, p.Total, status)
	}
	return fmt.Sprintf("%s %5.1f%% %s", bar, p.Percentage, status)
}
