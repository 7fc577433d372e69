package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/shadow/internal/phrase"
	"github.com/llehouerou/shadow/internal/playback"
	"github.com/llehouerou/shadow/internal/ui/render"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	stopSymbol  = "■"
)

// Height is the total height of the player bar: top border, content, bottom border.
const Height = 3

// Audio is the part of the player the bar reads.
type Audio interface {
	Position() time.Duration
	Duration() time.Duration
	Volume() float64
	Muted() bool
}

// State holds everything needed to render the player bar.
type State struct {
	Status    playback.State
	Replaying bool
	Index     int // 0-based, -1 before the first phrase
	Total     int
	Side      phrase.Side
	Recall    bool
	Text      string
	Speed     float64
	Loop      bool

	Position time.Duration
	Duration time.Duration

	// Pausing is set while the learner repeats or recalls between clips.
	Pausing      bool
	PauseElapsed time.Duration
	PauseTotal   time.Duration

	Volume float64
	Muted  bool
}

// NewState builds the bar state from the controller view.
func NewState(v playback.View, phrases []phrase.Phrase, cfg playback.Config, a Audio, pauseElapsed time.Duration) State {
	s := State{
		Status:    v.State,
		Replaying: v.Replaying,
		Index:     v.Index,
		Total:     len(phrases),
		Side:      v.Phase,
		Recall:    playback.IsRecall(v.Phase, cfg),
		Speed:     cfg.Speed(v.Phase),
		Loop:      cfg.EnableLoop,
		Volume:    a.Volume(),
		Muted:     a.Muted(),
	}
	if i := max(v.Index, 0); i < len(phrases) {
		s.Text = phrases[i].Text(v.Phase)
		s.Duration = phrases[i].AudioDuration(v.Phase)
	}
	if s.Duration <= 0 {
		s.Duration = a.Duration()
	}
	s.Position = a.Position()
	if v.ShowProgress {
		s.Pausing = true
		s.PauseTotal = v.ProgressDuration
		s.PauseElapsed = min(pauseElapsed, v.ProgressDuration)
	}
	return s
}

// Role returns the label of the side being played.
func (s State) Role() string {
	if s.Recall {
		return "recall"
	}
	return "shadow"
}

// Render returns the player bar string for the given width.
func Render(s State, width int) string {
	innerWidth := max(width-6, 0)
	sep := "   "

	var left strings.Builder
	left.WriteString(roleStyle(s.Recall).Render(fmt.Sprintf("%-6s", s.Role())))
	left.WriteString(sep)
	left.WriteString(metaStyle().Render(s.counter()))

	right := s.volume()
	if s.Speed > 0 && s.Speed != 1 {
		right = fmt.Sprintf("%.2gx  ", s.Speed) + right
	}
	if s.Loop {
		right = "loop  " + right
	}
	right = progressTimeStyle().Render(right)

	// Whatever is left between the labels goes to the text and the bar.
	middle := max(innerWidth-widthOf(left.String())-widthOf(right)-2*len(sep), 0)

	var bar string
	switch {
	case s.Status == playback.StateStopped:
		bar = stopSymbol + "  " + metaStyle().Render("stopped")
	case s.Pausing:
		bar = s.pauseBar(middle)
	default:
		bar = RenderProgressBar(s.Position, s.Duration, middle/2, s.Status == playback.StatePlaying)
	}
	textWidth := max(middle-widthOf(bar)-len(sep), 0)
	text := titleStyle().Render(render.TruncateAndPadEllipsis(s.Text, textWidth))

	content := left.String() + sep + text + sep + bar + sep + right
	return barStyle().Padding(0, 2).Width(width - 2).Render(content)
}

func (s State) counter() string {
	if s.Replaying && s.Index < 0 {
		return fmt.Sprintf("replay · %d", s.Total)
	}
	if s.Index < 0 {
		return fmt.Sprintf("–/%d", s.Total)
	}
	return fmt.Sprintf("%d/%d", s.Index+1, s.Total)
}

func (s State) volume() string {
	if s.Muted {
		return "mute"
	}
	return fmt.Sprintf("vol %3d%%", int(s.Volume*100+0.5))
}

// pauseBar shows the time left to repeat or recall before the next clip.
func (s State) pauseBar(width int) string {
	label := "repeat"
	if s.Recall {
		label = "recall"
	}
	left := max(s.PauseTotal-s.PauseElapsed, 0)
	head := fmt.Sprintf("%s %.1fs  ", label, left.Seconds())
	barWidth := max(width/2-widthOf(head), 3)
	filled := filledCells(s.PauseElapsed, s.PauseTotal, barWidth)
	return metaStyle().Render(head) +
		progressBarFilled().Render(strings.Repeat(filledBlock, filled)) +
		progressBarEmpty().Render(strings.Repeat(emptyBlock, barWidth-filled))
}

func widthOf(s string) int {
	return lipgloss.Width(s)
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
