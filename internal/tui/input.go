package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 2000

// newInput returns an unfocused single-line input.
func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = maxInputLen
	ti.Prompt = inputPromptStyle.Render("> ")
	ti.Width = 60
	return ti
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}
