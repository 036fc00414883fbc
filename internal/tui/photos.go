package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// photoLoadedMsg carries an image read from disk for one component phase.
type photoLoadedMsg struct {
	id    int64
	phase domain.Phase
	photo *domain.Photo
	err   error
}

type photoInput int

const (
	photoBrowse photoInput = iota
	photoPath
	photoComment
)

// photosModel serves both photo steps; phase picks the slot it edits.
type photosModel struct {
	phase  domain.Phase
	cursor int
	mode   photoInput
	input  textinput.Model
	err    error
}

func newPhotosModel(phase domain.Phase) photosModel {
	return photosModel{phase: phase, input: newInput("")}
}

func (m photosModel) editing() bool {
	return m.mode != photoBrowse
}

func (m photosModel) Update(msg tea.Msg, d domain.Draft) (photosModel, tea.Cmd) {
	selected := d.Selected()
	if m.cursor >= len(selected) {
		m.cursor = max(len(selected)-1, 0)
	}

	switch msg := msg.(type) {
	case photoLoadedMsg:
		if msg.phase != m.phase {
			return m, nil
		}
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		return m, dispatch(capture.AttachPhoto{ID: msg.id, Phase: msg.phase, Photo: msg.photo})

	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		if m.editing() {
			return m.updateInput(msg, selected)
		}
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(selected)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "a", "enter":
			if m.cursor < len(selected) {
				m.err = nil
				m.mode = photoPath
				m.input.Placeholder = "path to the " + m.phase.String() + " photo, e.g. ~/DCIM/IMG_0042.jpg"
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}
		case "e":
			if m.cursor < len(selected) {
				m.mode = photoComment
				m.input.Placeholder = "what did you see?"
				m.input.SetValue(selected[m.cursor].Comment(m.phase))
				m.input.CursorEnd()
				m.input.Focus()
				return m, textinput.Blink
			}
		case "x":
			if m.cursor < len(selected) && selected[m.cursor].Photo(m.phase) != nil {
				return m, dispatch(capture.RemovePhoto{ID: selected[m.cursor].ID, Phase: m.phase})
			}
		}
	}
	return m, nil
}

func (m photosModel) updateInput(msg tea.KeyMsg, selected []domain.ComponentCapture) (photosModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = photoBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		mode := m.mode
		value := m.input.Value()
		m.mode = photoBrowse
		m.input.Blur()
		if m.cursor >= len(selected) {
			return m, nil
		}
		id, phase := selected[m.cursor].ID, m.phase
		if mode == photoComment {
			return m, dispatch(capture.SetComment{ID: id, Phase: phase, Text: strings.TrimSpace(value)})
		}
		return m, func() tea.Msg {
			photo, err := readPhoto(value)
			return photoLoadedMsg{id: id, phase: phase, photo: photo, err: err}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m photosModel) View(d domain.Draft) string {
	var b strings.Builder
	selected := d.Selected()
	done := 0
	for _, c := range selected {
		if c.Photo(m.phase) != nil {
			done++
		}
	}
	fmt.Fprintf(&b, "%s  %s\n\n",
		sectionHeaderStyle.Render("  Attach a "+m.phase.String()+" photo for every component"),
		dimStyle.Render(fmt.Sprintf("%d/%d done", done, len(selected))))

	if len(selected) == 0 {
		b.WriteString(dimStyle.Render("  no components selected, go back to pick some") + "\n")
	}

	for i, c := range selected {
		photo := metaStyle.Render("no photo")
		if p := c.Photo(m.phase); p != nil {
			photo = dimStyle.Render(fmt.Sprintf("%s (%d KB)", truncStr(p.FileName, 32), (len(p.Data)+1023)/1024))
		}
		name := fmt.Sprintf("%-24s", truncStr(c.Name, 24))
		if i == m.cursor {
			b.WriteString(" " + accentStyle.Render(">") + " " + check(c.Photo(m.phase) != nil) + " " + selectedStyle.Render(name) + " " + photo + "\n")
		} else {
			b.WriteString("   " + check(c.Photo(m.phase) != nil) + " " + normalStyle.Render(name) + " " + photo + "\n")
		}
		if comment := c.Comment(m.phase); comment != "" {
			b.WriteString(metaStyle.Render("       “"+truncStr(comment, 60)+"”") + "\n")
		}
	}

	if m.editing() {
		label := "photo  "
		if m.mode == photoComment {
			label = "comment"
		}
		b.WriteString("\n  " + label + " " + m.input.View() + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + rejectStyle.Render("  "+m.err.Error()) + "\n")
	}
	return b.String()
}

func (m photosModel) helpKeys() string {
	if m.editing() {
		return helpBar([2]string{"enter", "confirm"}, [2]string{"esc", "cancel"})
	}
	return helpBar(
		[2]string{"j/k", "nav"}, [2]string{"a", "attach"}, [2]string{"x", "remove"},
		[2]string{"e", "comment"}, [2]string{"b", "back"}, [2]string{"n", "next"}, [2]string{"q", "quit"},
	)
}
