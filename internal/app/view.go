// internal/app/view.go
package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/playback"
	"github.com/llehouerou/shadow/internal/ui/overlay"
	"github.com/llehouerou/shadow/internal/ui/playerbar"
	"github.com/llehouerou/shadow/internal/ui/render"
	"github.com/llehouerou/shadow/internal/ui/styles"
)

const (
	headerHeight = 2
	footerHeight = 1
	// list rows are inside a bordered panel
	panelChrome = 2
)

// View renders the application UI.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	header := m.renderHeader()
	list := m.renderList()
	if m.showHelp {
		list = overlay.Center(list, m.renderHelpBox(), m.width)
	}

	cfg := m.host.PresentationConfig()
	bar := playerbar.Render(
		playerbar.NewState(m.view, m.host.Phrases(), cfg, m.audio, m.now().Sub(m.pauseStarted)),
		m.width,
	)

	footer := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.errorMsg != "" {
		footer = styles.T().S().Error.Render(render.Truncate(m.errorMsg, m.width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, list, bar, footer)
}

func (m Model) listHeight() int {
	return max(m.height-headerHeight-footerHeight-playerbar.Height-panelChrome, 0)
}

func (m Model) renderHeader() string {
	c := m.host.Collection()
	t := styles.T()

	name := c.Name
	if name == "" {
		name = c.ID
	}
	title := styles.TitleGradient(render.Truncate(name, max(m.width/2, 10)))

	var info []string
	if c.ItemType != "" {
		info = append(info, c.ItemType)
	}
	info = append(info, humanize.Comma(int64(len(c.Phrases)))+" phrases")
	if h := m.history; h != nil {
		info = append(info, fmt.Sprintf("%d/%d listened", len(h.Listened), len(c.Phrases)))
		if !h.UpdatedAt.IsZero() {
			info = append(info, "last studied "+humanize.RelTime(h.UpdatedAt, m.now(), "ago", "from now"))
		}
		if h.Completions > 0 {
			info = append(info, fmt.Sprintf("finished %d×", h.Completions))
		}
	}
	right := t.S().Muted.Render(strings.Join(info, " · "))

	return render.Row(" "+title, right+" ", m.width) + "\n" + t.S().Subtle.Render(render.Separator(m.width))
}

func (m Model) renderList() string {
	rows := m.listHeight()
	inner := max(m.width-2, 0)
	phrases := m.host.Phrases()
	cfg := m.host.PresentationConfig()

	var lines []string
	if m.view.ShowTitle {
		lines = m.renderReplayTitle(rows, inner)
		lines = lines[:min(len(lines), rows)]
	} else {
		start, end := m.list.Visible(len(phrases), rows)
		for i := start; i < end; i++ {
			lines = append(lines, m.renderRow(i, phrases[i], cfg, inner))
		}
	}
	for len(lines) < rows {
		lines = append(lines, render.EmptyLine(inner))
	}

	return styles.PanelStyle(m.view.State == playback.StatePlaying).
		Width(inner).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderReplayTitle(rows, width int) []string {
	c := m.host.Collection()
	t := styles.T()
	title := styles.TitleGradient(c.Name)
	lines := make([]string, 0, rows)
	for range max(rows/2-1, 0) {
		lines = append(lines, "")
	}
	lines = append(lines,
		lipgloss.PlaceHorizontal(width, lipgloss.Center, title),
		lipgloss.PlaceHorizontal(width, lipgloss.Center, t.S().Muted.Render("from the top")),
	)
	return lines
}

func (m Model) renderRow(i int, p phrase.Phrase, cfg playback.Config, width int) string {
	s := styles.T().S()
	current := i == m.view.Index

	marker := "  "
	if current {
		marker = "▶ "
		if m.view.State != playback.StatePlaying {
			marker = "• "
		}
	}

	num := fmt.Sprintf("%3d ", i+1)
	first := p.Text(playback.FirstSide(cfg))
	second := p.Text(playback.FirstSide(cfg).Other())
	if p.Romanization != "" {
		second += " (" + p.Romanization + ")"
	}

	textWidth := max(width-lipgloss.Width(marker)-len(num), 0)
	half := textWidth / 2

	prefix := s.Subtle.Render(marker + num)
	if current {
		prefix = s.Playing.Render(marker + num)
	}
	line := prefix + render.TruncateAndPad(first, half) + s.Muted.Render(render.TruncateAndPad(second, textWidth-half))
	if i == m.list.Pos() {
		line = s.Cursor.Render(line)
	}
	return line
}

func (m Model) renderHelpBox() string {
	return styles.BoxStyle().Render(m.help.FullHelpView(m.keys.FullHelp()))
}
