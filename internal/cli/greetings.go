package cli

import (
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/lipgloss"
)

var fieldGreetings = [...]string{
	"The tower is still standing. Somebody should write that down.",
	"Seventeen antennas, zero photos. The report will not write itself.",
	"The rooftop door is open. Your session is not.",
	"A rectifier hums somewhere, waiting to be inspected.",
	"Before photos first. After photos second. Coffee whenever.",
	"The cabinet key is in your pocket. The sign-in is one command away.",
	"Every visit starts with a site. Every site starts with a login.",
	"The draft you left yesterday is still here, if it is under a day old.",
	"No signal on the roof? The draft saves locally anyway.",
	"The battery bank will not photograph itself.",
	"Somewhere a feeder cable is loose. Go find it.",
	"Sign in, pick a site, shoot two photos per component. That is the job.",
}

var (
	greetingTitle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff7900")).Bold(true)
	greetingQuote = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	greetingHint  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	greetingWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
)

// printGreeting is shown by the bare command when nobody is signed in.
func printGreeting(w io.Writer, expired bool) {
	msg := fieldGreetings[rand.IntN(len(fieldGreetings))]
	printf(w, "\n%s\n\n%s\n\n", greetingTitle.Render("ORANGESITES"), greetingQuote.Render(msg))
	if expired {
		printf(w, "%s\n", greetingWarn.Render("Your session has expired. Please sign in again."))
	}
	printf(w, "%s\n\n", greetingHint.Render("To start: orangesites login"))
}
