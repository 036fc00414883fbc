package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abdallahh166/Orangesites-sub000/internal/browser"
	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// sitesLoadedMsg carries the result of ListSites.
type sitesLoadedMsg struct {
	sites []domain.Site
	err   error
}

// openResultMsg reports whether the browser could be launched.
type openResultMsg struct{ err error }

type siteModel struct {
	catalog Catalog
	mapErr  func(error) error
	openURL func(string) error

	sites   []domain.Site
	cursor  int
	loading bool
	err     error

	editing bool
	notes   textinput.Model
}

func newSiteModel(c Catalog, mapErr func(error) error, openURL func(string) error) siteModel {
	return siteModel{
		catalog: c,
		mapErr:  mapErr,
		openURL: openURL,
		notes:   newInput("access notes, gate code, contact..."),
	}
}

func (m siteModel) load() tea.Cmd {
	c, mapErr := m.catalog, m.mapErr
	return func() tea.Msg {
		sites, err := c.ListSites(context.Background())
		if err != nil {
			return sitesLoadedMsg{err: mapErr(err)}
		}
		return sitesLoadedMsg{sites: sites}
	}
}

func (m siteModel) Update(msg tea.Msg, d domain.Draft) (siteModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sitesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.sites = msg.sites
		m.cursor = 0
		if d.SiteID != nil {
			for i, s := range m.sites {
				if s.ID == *d.SiteID {
					m.cursor = i
					break
				}
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.notes.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateNotes(msg, d)
		}
		return m.updateKeys(msg, d)
	}
	return m, nil
}

func (m siteModel) updateKeys(msg tea.KeyMsg, d domain.Draft) (siteModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.sites)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter", " ", "space":
		if m.cursor < len(m.sites) {
			return m, dispatch(capture.SetSite{Site: m.sites[m.cursor]})
		}
	case "e":
		if d.SiteID == nil {
			return m, nil
		}
		m.editing = true
		m.notes.SetValue(d.SiteInfo.Notes)
		m.notes.CursorEnd()
		m.notes.Focus()
		return m, textinput.Blink
	case "m":
		coords := d.SiteInfo.Coordinates
		if m.cursor < len(m.sites) && (d.SiteID == nil || m.sites[m.cursor].ID != *d.SiteID) {
			coords = m.sites[m.cursor].Coordinates
		}
		if coords == nil {
			return m, nil
		}
		url, open := browser.MapURL(*coords), m.openURL
		return m, func() tea.Msg {
			return openResultMsg{err: open(url)}
		}
	case "r":
		m.loading = true
		return m, m.load()
	}
	return m, nil
}

func (m siteModel) updateNotes(msg tea.KeyMsg, d domain.Draft) (siteModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.notes.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.notes.Blur()
		info := d.SiteInfo
		info.Notes = strings.TrimSpace(m.notes.Value())
		return m, dispatch(capture.SetSiteInfo{Info: info})
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m siteModel) View(d domain.Draft) string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("  Choose the site you are inspecting") + "\n\n")

	switch {
	case m.loading && len(m.sites) == 0:
		b.WriteString(dimStyle.Render("  loading sites...") + "\n")
	case m.err != nil:
		b.WriteString(rejectStyle.Render("  could not load sites: "+m.err.Error()) + "\n")
		b.WriteString(dimStyle.Render("  press r to retry") + "\n")
	case len(m.sites) == 0:
		b.WriteString(dimStyle.Render("  no sites assigned to you") + "\n")
	}

	for i, s := range m.sites {
		mark := "  "
		if d.SiteID != nil && *d.SiteID == s.ID {
			mark = okStyle.Render("✓ ")
		}
		line := fmt.Sprintf("%-28s %s", truncStr(s.Name, 28), dimStyle.Render(truncStr(s.Location, 36)))
		if i == m.cursor {
			b.WriteString(" " + accentStyle.Render(">") + mark + selectedRowBg.Render(selectedStyle.Render(line)) + "\n")
		} else {
			b.WriteString("  " + mark + normalStyle.Render(line) + "\n")
		}
	}

	if d.SiteID != nil {
		b.WriteString("\n" + sectionHeaderStyle.Render("  Selected") + "\n")
		b.WriteString("  " + selectedStyle.Render(d.SiteInfo.Name))
		if d.SiteInfo.Location != "" {
			b.WriteString(dimStyle.Render(" · " + d.SiteInfo.Location))
		}
		b.WriteString("\n")
		if c := d.SiteInfo.Coordinates; c != nil {
			b.WriteString(metaStyle.Render(fmt.Sprintf("  %.5f, %.5f", c.Lat, c.Lng)) + "\n")
		}
		if m.editing {
			b.WriteString("  notes " + m.notes.View() + "\n")
		} else if d.SiteInfo.Notes != "" {
			b.WriteString(dimStyle.Render("  notes: "+d.SiteInfo.Notes) + "\n")
		}
	}
	return b.String()
}

func (m siteModel) helpKeys() string {
	if m.editing {
		return helpBar([2]string{"enter", "save notes"}, [2]string{"esc", "cancel"})
	}
	return helpBar(
		[2]string{"j/k", "nav"}, [2]string{"enter", "select"}, [2]string{"e", "notes"},
		[2]string{"m", "map"}, [2]string{"n", "next"}, [2]string{"q", "quit"},
	)
}
