package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/internal/wizard"
)

// Shimmer animation for the ORANGE SITES wordmark.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders the wordmark as a wave of orange light flowing
// left to right. Deep ember (#3a1f0a) -> signal orange (#ff7900).
func renderShimmerLogo(frame int) string {
	const text = "ORANGESITES"
	n := len(text)

	var b strings.Builder
	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		v := math.Sin(phase)*0.5 + 0.5
		v = math.Pow(v, 1.3)
		v = v*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		v = math.Max(0.05, math.Min(1.0, v))

		r := clampByte(58 + v*(255-58))
		g := clampByte(31 + v*(121-31))
		bl := clampByte(10 + v*(0-10))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		b.WriteString(s.Render(string(text[i])))

		switch {
		case i == 5: // ORANGE | SITES
			b.WriteString("    ")
		case i < n-1:
			b.WriteString("  ")
		}
	}
	return b.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff7900"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#34d474"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b"))

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878")).
				Bold(true)

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ff7900")).
				Bold(true)

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Background(lipgloss.Color("#5a1f1f")).
			Bold(true).
			Padding(0, 1)
)

// stepStyle returns the style for a step tab in the header.
func stepStyle(s wizard.Status) lipgloss.Style {
	switch s {
	case wizard.Current:
		return selectedStyle.Underline(true)
	case wizard.Completed:
		return okStyle
	default:
		return dimStyle
	}
}

// stepMark returns the glyph shown before a step title.
func stepMark(s wizard.Status) string {
	switch s {
	case wizard.Current:
		return accentStyle.Render("●")
	case wizard.Completed:
		return okStyle.Render("✓")
	default:
		return metaStyle.Render("○")
	}
}

// saveStyle colours the save-status indicator.
func saveStyle(s capture.SaveState) lipgloss.Style {
	switch s {
	case capture.Saved:
		return okStyle
	case capture.SavePending, capture.Saving:
		return warnStyle
	case capture.SaveFailed:
		return rejectStyle
	default:
		return metaStyle
	}
}

// check renders a present/missing mark.
func check(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return rejectStyle.Render("✗")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins entries into the bottom help line.
func helpBar(entries ...[2]string) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, helpEntry(e[0], e[1]))
	}
	return " " + strings.Join(parts, "  ")
}
