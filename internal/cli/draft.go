package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdallahh166/Orangesites-sub000/internal/capture"
	"github.com/abdallahh166/Orangesites-sub000/pkg/domain"
)

var draftFormat string

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or discard the saved capture draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft",
	Args:  cobra.NoArgs,
	RunE:  runDraftShow,
}

var draftDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Delete the saved draft",
	Args:  cobra.NoArgs,
	RunE:  runDraftDiscard,
}

func init() {
	draftShowCmd.Flags().StringVar(&draftFormat, "format", "text", "Output format: text, yaml or json")
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftDiscardCmd)
}

// draftSummary is the printable form of a draft. Photo bytes are left out.
type draftSummary struct {
	ID          string             `json:"id" yaml:"id"`
	SiteID      *int64             `json:"siteId,omitempty" yaml:"siteId,omitempty"`
	Site        string             `json:"site,omitempty" yaml:"site,omitempty"`
	Location    string             `json:"location,omitempty" yaml:"location,omitempty"`
	Notes       string             `json:"notes,omitempty" yaml:"notes,omitempty"`
	Step        string             `json:"step" yaml:"step"`
	Components  []componentSummary `json:"components" yaml:"components"`
	LastSavedAt *time.Time         `json:"lastSavedAt,omitempty" yaml:"lastSavedAt,omitempty"`
	ExpiresAt   *time.Time         `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

type componentSummary struct {
	ID            int64  `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Group         string `json:"group,omitempty" yaml:"group,omitempty"`
	BeforePhoto   string `json:"beforePhoto,omitempty" yaml:"beforePhoto,omitempty"`
	AfterPhoto    string `json:"afterPhoto,omitempty" yaml:"afterPhoto,omitempty"`
	BeforeComment string `json:"beforeComment,omitempty" yaml:"beforeComment,omitempty"`
	AfterComment  string `json:"afterComment,omitempty" yaml:"afterComment,omitempty"`
}

func summarize(d domain.Draft, maxAge time.Duration) draftSummary {
	s := draftSummary{
		ID:          d.ID.String(),
		SiteID:      d.SiteID,
		Site:        d.SiteInfo.Name,
		Location:    d.SiteInfo.Location,
		Notes:       d.SiteInfo.Notes,
		Step:        stepTitle(d.CurrentStep),
		Components:  []componentSummary{},
		LastSavedAt: d.LastSavedAt,
	}
	if d.LastSavedAt != nil {
		exp := d.LastSavedAt.Add(maxAge)
		s.ExpiresAt = &exp
	}
	for _, c := range d.Selected() {
		cs := componentSummary{
			ID:            c.ID,
			Name:          c.Name,
			Group:         c.GroupName,
			BeforeComment: c.BeforeComment,
			AfterComment:  c.AfterComment,
		}
		if c.BeforePhoto != nil {
			cs.BeforePhoto = c.BeforePhoto.FileName
		}
		if c.AfterPhoto != nil {
			cs.AfterPhoto = c.AfterPhoto.FileName
		}
		s.Components = append(s.Components, cs)
	}
	return s
}

func stepTitle(i int) string {
	if i < 0 || i >= len(capture.Steps) {
		return fmt.Sprintf("step %d", i+1)
	}
	return capture.Steps[i].Title
}

func runDraftShow(cmd *cobra.Command, _ []string) error {
	switch draftFormat {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("unknown format %q (want text, yaml or json)", draftFormat)
	}

	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	d, ok, err := env.drafts.Load(cmd.Context(), env.cfg.DraftKey)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		printf(out, "No saved draft.\n")
		return nil
	}
	s := summarize(d, env.drafts.MaxAge())

	switch draftFormat {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	writeDraftText(out, s)
	return nil
}

func writeDraftText(w io.Writer, s draftSummary) {
	site := s.Site
	if site == "" {
		site = "(none)"
	}
	printf(w, "draft     %s\n", s.ID)
	printf(w, "site      %s\n", site)
	if s.Location != "" {
		printf(w, "location  %s\n", s.Location)
	}
	printf(w, "step      %s\n", s.Step)
	if s.LastSavedAt != nil {
		printf(w, "saved     %s\n", s.LastSavedAt.Local().Format(time.DateTime))
	}
	if s.ExpiresAt != nil {
		printf(w, "expires   %s\n", s.ExpiresAt.Local().Format(time.DateTime))
	}
	printf(w, "components (%d selected)\n", len(s.Components))
	for _, c := range s.Components {
		printf(w, "  %-28s before %s  after %s\n", c.Name, mark(c.BeforePhoto != ""), mark(c.AfterPhoto != ""))
	}
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no "
}

func runDraftDiscard(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.drafts.Discard(cmd.Context(), env.cfg.DraftKey); err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "Draft discarded.\n")
	return nil
}
