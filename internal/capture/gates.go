package capture

import (
	"fmt"

	"github.com/abdallahh166/Orangesites-sub000/internal/apperr"
	"github.com/abdallahh166/Orangesites-sub000/internal/wizard"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// Step indexes of the capture wizard.
const (
	StepSite = iota
	StepComponents
	StepBefore
	StepAfter
	StepReview
)

// Steps is the capture wizard's step list.
var Steps = []wizard.Step{
	{ID: "site", Title: "Site"},
	{ID: "components", Title: "Components"},
	{ID: "before", Title: "Before photos"},
	{ID: "after", Title: "After photos"},
	{ID: "review", Title: "Review"},
}

// CanAdvance reports whether step may be left going forward with draft d.
func CanAdvance(d domain.Draft, step int) bool {
	switch step {
	case StepSite:
		return d.SiteID != nil
	case StepComponents:
		return len(d.Selected()) > 0
	case StepBefore:
		return everySelected(d, func(c domain.ComponentCapture) bool { return c.BeforePhoto != nil })
	case StepAfter:
		return everySelected(d, func(c domain.ComponentCapture) bool { return c.AfterPhoto != nil })
	case StepReview:
		return true
	default:
		return false
	}
}

func everySelected(d domain.Draft, ok func(domain.ComponentCapture) bool) bool {
	for _, c := range d.Selected() {
		if !ok(c) {
			return false
		}
	}
	return true
}

// Validate checks that d can be submitted: a site is chosen, at least one
// component is selected, and every selected component has both photos.
// The error wraps apperr.ErrValidationFailed.
func Validate(d domain.Draft) error {
	if d.SiteID == nil {
		return fmt.Errorf("%w: no site selected", apperr.ErrValidationFailed)
	}
	selected := d.Selected()
	if len(selected) == 0 {
		return fmt.Errorf("%w: no components selected", apperr.ErrValidationFailed)
	}
	for _, c := range selected {
		if !c.Submittable() {
			return fmt.Errorf("%w: component %q needs a before and an after photo", apperr.ErrValidationFailed, c.Name)
		}
	}
	return nil
}

// BuildRequest turns a validated draft into the create-visit payload. Only
// selected components are included.
func BuildRequest(d domain.Draft) domain.CreateVisitRequest {
	req := domain.CreateVisitRequest{SiteInfo: d.SiteInfo}
	if d.SiteID != nil {
		req.SiteID = *d.SiteID
	}
	for _, c := range d.Selected() {
		req.Components = append(req.Components, domain.VisitComponent{
			ComponentID:   c.ID,
			BeforePhoto:   c.BeforePhoto,
			AfterPhoto:    c.AfterPhoto,
			BeforeComment: c.BeforeComment,
			AfterComment:  c.AfterComment,
		})
	}
	return req
}
