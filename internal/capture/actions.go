// Package capture implements the five-step site-inspection capture: draft
// edits as actions, per-step gates, and the workflow that persists and
// submits the draft.
package capture

import (
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// Action is one edit to a draft. The set of actions is closed.
type Action interface {
	isAction()
}

// SetSite selects the inspected site and copies its description into the
// draft. Choosing a different site drops the component captures of the old
// one.
type SetSite struct{ Site domain.Site }

// SetSiteInfo replaces the free-form site description.
type SetSiteInfo struct{ Info domain.SiteInfo }

// SetComponents replaces the component catalog. Captures of components that
// are still in the catalog are kept.
type SetComponents struct{ Components []domain.Component }

// AddComponent adds a component and selects it. Adding a known component
// only selects it.
type AddComponent struct{ Component domain.Component }

// RemoveComponent drops a component and everything captured for it.
type RemoveComponent struct{ ID int64 }

// ToggleComponent flips whether a component is part of the inspection.
type ToggleComponent struct{ ID int64 }

// AttachPhoto sets the photo of one phase of a component.
type AttachPhoto struct {
	ID    int64
	Phase domain.Phase
	Photo *domain.Photo
}

// RemovePhoto clears the photo of one phase of a component.
type RemovePhoto struct {
	ID    int64
	Phase domain.Phase
}

// SetComment sets the comment of one phase of a component.
type SetComment struct {
	ID    int64
	Phase domain.Phase
	Text  string
}

// Reset clears everything captured. The draft keeps its identity.
type Reset struct{}

func (SetSite) isAction()         {}
func (SetSiteInfo) isAction()     {}
func (SetComponents) isAction()   {}
func (AddComponent) isAction()    {}
func (RemoveComponent) isAction() {}
func (ToggleComponent) isAction() {}
func (AttachPhoto) isAction()     {}
func (RemovePhoto) isAction()     {}
func (SetComment) isAction()      {}
func (Reset) isAction()           {}

// Reduce applies a to d and returns the new draft. d is never modified.
// Actions naming an unknown component leave the draft unchanged.
func Reduce(d domain.Draft, a Action) domain.Draft {
	next := d.Clone()
	switch a := a.(type) {
	case SetSite:
		if next.SiteID == nil || *next.SiteID != a.Site.ID {
			next.SelectedComponents = nil
		}
		id := a.Site.ID
		next.SiteID = &id
		next.SiteInfo = domain.SiteInfo{
			Name:        a.Site.Name,
			Location:    a.Site.Location,
			Coordinates: copyCoordinates(a.Site.Coordinates),
			Notes:       a.Site.Notes,
		}

	case SetSiteInfo:
		next.SiteInfo = a.Info
		next.SiteInfo.Coordinates = copyCoordinates(a.Info.Coordinates)

	case SetComponents:
		old := make(map[int64]domain.ComponentCapture, len(next.SelectedComponents))
		for _, c := range next.SelectedComponents {
			old[c.ID] = c
		}
		seen := make(map[int64]bool, len(a.Components))
		catalog := make([]domain.ComponentCapture, 0, len(a.Components))
		for _, comp := range a.Components {
			if seen[comp.ID] {
				continue
			}
			seen[comp.ID] = true
			c, ok := old[comp.ID]
			if !ok {
				c = domain.ComponentCapture{ID: comp.ID}
			}
			c.Name = comp.Name
			c.GroupName = comp.GroupName
			catalog = append(catalog, c)
		}
		next.SelectedComponents = catalog

	case AddComponent:
		if i := indexOf(next, a.Component.ID); i >= 0 {
			next.SelectedComponents[i].IsSelected = true
			break
		}
		next.SelectedComponents = append(next.SelectedComponents, domain.ComponentCapture{
			ID:         a.Component.ID,
			Name:       a.Component.Name,
			GroupName:  a.Component.GroupName,
			IsSelected: true,
		})

	case RemoveComponent:
		if i := indexOf(next, a.ID); i >= 0 {
			next.SelectedComponents = append(next.SelectedComponents[:i], next.SelectedComponents[i+1:]...)
		}

	case ToggleComponent:
		if i := indexOf(next, a.ID); i >= 0 {
			next.SelectedComponents[i].IsSelected = !next.SelectedComponents[i].IsSelected
		}

	case AttachPhoto:
		if i := indexOf(next, a.ID); i >= 0 && a.Photo != nil {
			setPhoto(&next.SelectedComponents[i], a.Phase, a.Photo)
		}

	case RemovePhoto:
		if i := indexOf(next, a.ID); i >= 0 {
			setPhoto(&next.SelectedComponents[i], a.Phase, nil)
		}

	case SetComment:
		if i := indexOf(next, a.ID); i >= 0 {
			if a.Phase == domain.PhaseAfter {
				next.SelectedComponents[i].AfterComment = a.Text
			} else {
				next.SelectedComponents[i].BeforeComment = a.Text
			}
		}

	case Reset:
		next = domain.Draft{ID: d.ID, SubmissionKey: d.SubmissionKey}
	}
	return next
}

func indexOf(d domain.Draft, id int64) int {
	for i, c := range d.SelectedComponents {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func setPhoto(c *domain.ComponentCapture, p domain.Phase, photo *domain.Photo) {
	if p == domain.PhaseAfter {
		c.AfterPhoto = photo
	} else {
		c.BeforePhoto = photo
	}
}

func copyCoordinates(c *domain.Coordinates) *domain.Coordinates {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
