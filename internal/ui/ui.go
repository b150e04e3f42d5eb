package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/feat/internal/models"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle = NewBold("#7D56F4").Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// StatusLabel renders a session status, highlighting running sessions.
func StatusLabel(status models.Status) string {
	if status == models.StatusRunning {
		return Styles.Warning(string(status))
	}
	return Styles.Success(string(status))
}

// SessionTable renders sessions as a bordered table, newest last.
//
// Times are shown relative to now.
func SessionTable(sessions []*models.Session, now time.Time) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "SESSION", "STATUS", "CREATED", "UPDATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, s := range sessions {
		t.Row(
			strconv.Itoa(s.Sequence()),
			s.ID(),
			StatusLabel(s.Status()),
			humanize.RelTime(s.CreatedAt(), now, "ago", "from now"),
			humanize.RelTime(s.UpdatedAt(), now, "ago", "from now"),
		)
	}

	return t.String()
}

// Summary renders a one-line count such as "3 sessions".
func Summary(n int, noun string) string {
	if n != 1 {
		noun += "s"
	}
	return Styles.Help(fmt.Sprintf("%d %s", n, noun))
}
