package tui

import (
	"fmt"
	"strings"

	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

// reviewView renders the final summary before submission.
func reviewView(d domain.Draft, submitting bool) string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("  Review the inspection") + "\n\n")

	b.WriteString("  " + metaStyle.Render("site      ") + selectedStyle.Render(d.SiteInfo.Name))
	if d.SiteInfo.Location != "" {
		b.WriteString(dimStyle.Render(" · " + d.SiteInfo.Location))
	}
	b.WriteString("\n")
	if c := d.SiteInfo.Coordinates; c != nil {
		b.WriteString("  " + metaStyle.Render("position  ") + dimStyle.Render(fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lng)) + "\n")
	}
	if d.SiteInfo.Notes != "" {
		b.WriteString("  " + metaStyle.Render("notes     ") + dimStyle.Render(d.SiteInfo.Notes) + "\n")
	}

	selected := d.Selected()
	fmt.Fprintf(&b, "\n  %s\n", sectionHeaderStyle.Render(fmt.Sprintf("%d components", len(selected))))
	for _, c := range selected {
		fmt.Fprintf(&b, "   %s before  %s after  %s\n",
			check(c.BeforePhoto != nil), check(c.AfterPhoto != nil), normalStyle.Render(c.Name))
		if c.BeforeComment != "" {
			b.WriteString(metaStyle.Render("       before: "+truncStr(c.BeforeComment, 60)) + "\n")
		}
		if c.AfterComment != "" {
			b.WriteString(metaStyle.Render("       after:  "+truncStr(c.AfterComment, 60)) + "\n")
		}
	}

	b.WriteString("\n")
	switch err := capture.Validate(d); {
	case submitting:
		b.WriteString(warnStyle.Render("  submitting...") + "\n")
	case err != nil:
		b.WriteString(rejectStyle.Render("  not ready: "+strings.TrimPrefix(err.Error(), "validation failed: ")) + "\n")
	default:
		b.WriteString(okStyle.Render("  ready to submit") + dimStyle.Render("  press enter") + "\n")
	}
	return b.String()
}
