package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const requestTimeout = 30 * time.Second

// ReqCtx returns a context with the standard timeout for API calls.
func ReqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// FormatAmount renders a money amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

var (
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	activeColor = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	panelStyle  = lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
)

// statusColors maps loan and debt statuses to badge colors.
var statusColors = map[string]string{
	"PENDING":        "220",
	"APPROVED":       "39",
	"DISBURSED":      "45",
	"COMPLETED":      "42",
	"DEFAULTED":      "196",
	"REJECTED":       "241",
	"PARTIALLY_PAID": "39",
	"PAID":           "42",
	"WRITTEN_OFF":    "241",
}

// StatusBadge renders a status in its color.
func StatusBadge(status string) string {
	color, ok := statusColors[status]
	if !ok {
		color = "255"
	}

	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(status)
}

func activeStyle(s string) string {
	return activeColor.Render(s)
}
