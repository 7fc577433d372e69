package playerbar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/shadow/internal/ui/styles"
)

func barStyle() lipgloss.Style {
	return styles.PanelStyle(false)
}

func titleStyle() lipgloss.Style {
	return styles.T().S().Title
}

func metaStyle() lipgloss.Style {
	return styles.T().S().Muted
}

func progressTimeStyle() lipgloss.Style {
	return styles.T().S().Subtle
}

func progressBarFilled() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().Primary)
}

func progressBarEmpty() lipgloss.Style {
	return styles.T().S().Subtle
}

func roleStyle(recall bool) lipgloss.Style {
	if recall {
		return styles.T().S().Recall
	}
	return styles.T().S().Playing
}
