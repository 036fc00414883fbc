package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// componentsLoadedMsg carries the component catalog of one site.
type componentsLoadedMsg struct {
	siteID int64
	comps  []domain.Component
	err    error
}

type componentsModel struct {
	catalog Catalog
	mapErr  func(error) error

	// loadedFor is the site whose catalog is in the draft, 0 when none.
	loadedFor int64
	loading   bool
	err       error
	cursor    int
}

func newComponentsModel(c Catalog, mapErr func(error) error) componentsModel {
	return componentsModel{catalog: c, mapErr: mapErr}
}

// ensureLoaded fetches the catalog of the draft's site unless it is already
// applied. Switching sites empties the draft's components, so an empty list
// is always refetched.
func (m componentsModel) ensureLoaded(d domain.Draft) (componentsModel, tea.Cmd) {
	if d.SiteID == nil || m.loading {
		return m, nil
	}
	if *d.SiteID == m.loadedFor && len(d.SelectedComponents) > 0 {
		return m, nil
	}
	m.loading = true
	m.err = nil
	return m, m.load(*d.SiteID)
}

func (m componentsModel) load(siteID int64) tea.Cmd {
	c, mapErr := m.catalog, m.mapErr
	return func() tea.Msg {
		comps, err := c.ListSiteComponents(context.Background(), siteID)
		if err != nil {
			return componentsLoadedMsg{siteID: siteID, err: mapErr(err)}
		}
		return componentsLoadedMsg{siteID: siteID, comps: comps}
	}
}

func (m componentsModel) Update(msg tea.Msg, d domain.Draft) (componentsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case componentsLoadedMsg:
		m.loading = false
		if d.SiteID == nil || *d.SiteID != msg.siteID {
			// The site changed while the request was out.
			return m, nil
		}
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.loadedFor = msg.siteID
		if m.cursor >= len(msg.comps) {
			m.cursor = 0
		}
		return m, dispatch(capture.SetComponents{Components: msg.comps})

	case tea.KeyMsg:
		comps := d.SelectedComponents
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(comps)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case " ", "space", "enter":
			if m.cursor < len(comps) {
				return m, dispatch(capture.ToggleComponent{ID: comps[m.cursor].ID})
			}
		case "r":
			if d.SiteID != nil {
				m.loading = true
				m.err = nil
				return m, m.load(*d.SiteID)
			}
		}
	}
	return m, nil
}

func (m componentsModel) View(d domain.Draft) string {
	var b strings.Builder
	selected := len(d.Selected())
	fmt.Fprintf(&b, "%s  %s\n\n",
		sectionHeaderStyle.Render("  Select the components you inspect"),
		dimStyle.Render(fmt.Sprintf("%d selected", selected)))

	switch {
	case m.loading && len(d.SelectedComponents) == 0:
		b.WriteString(dimStyle.Render("  loading components...") + "\n")
	case m.err != nil:
		b.WriteString(rejectStyle.Render("  could not load components: "+m.err.Error()) + "\n")
		b.WriteString(dimStyle.Render("  press r to retry") + "\n")
	case len(d.SelectedComponents) == 0:
		b.WriteString(dimStyle.Render("  this site has no components") + "\n")
	}

	group := ""
	for i, c := range d.SelectedComponents {
		if i == 0 || c.GroupName != group {
			group = c.GroupName
			name := group
			if name == "" {
				name = "other"
			}
			b.WriteString(metaStyle.Render("  "+strings.ToUpper(name)) + "\n")
		}
		box := "[ ]"
		if c.IsSelected {
			box = okStyle.Render("[x]")
		}
		if i == m.cursor {
			b.WriteString(" " + accentStyle.Render(">") + " " + box + " " + selectedStyle.Render(c.Name) + "\n")
		} else {
			b.WriteString("   " + box + " " + normalStyle.Render(c.Name) + "\n")
		}
	}
	return b.String()
}

func (m componentsModel) helpKeys() string {
	return helpBar(
		[2]string{"j/k", "nav"}, [2]string{"space", "toggle"}, [2]string{"r", "reload"},
		[2]string{"b", "back"}, [2]string{"n", "next"}, [2]string{"q", "quit"},
	)
}
