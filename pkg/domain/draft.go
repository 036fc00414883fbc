package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Phase distinguishes the two photo/comment slots of a component capture.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseAfter
)

func (p Phase) String() string {
	if p == PhaseAfter {
		return "after"
	}
	return "before"
}

// Photo is an attached image. Photo values are never mutated after creation;
// replacing a photo swaps the pointer.
type Photo struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Data        []byte    `json:"data"`
	TakenAt     time.Time `json:"takenAt"`
}

// SiteInfo is the free-form site description captured on the first step.
type SiteInfo struct {
	Name        string       `json:"name"`
	Location    string       `json:"location"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// ComponentCapture is the per-component inspection state inside a draft.
type ComponentCapture struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	GroupName     string `json:"groupName"`
	BeforePhoto   *Photo `json:"beforePhoto,omitempty"`
	AfterPhoto    *Photo `json:"afterPhoto,omitempty"`
	BeforeComment string `json:"beforeComment,omitempty"`
	AfterComment  string `json:"afterComment,omitempty"`
	IsSelected    bool   `json:"isSelected"`
}

// Photo returns the photo attached for the given phase.
func (c ComponentCapture) Photo(p Phase) *Photo {
	if p == PhaseAfter {
		return c.AfterPhoto
	}
	return c.BeforePhoto
}

// Comment returns the comment for the given phase.
func (c ComponentCapture) Comment(p Phase) string {
	if p == PhaseAfter {
		return c.AfterComment
	}
	return c.BeforeComment
}

// Submittable reports whether the component passes the two-photo gate.
func (c ComponentCapture) Submittable() bool {
	return c.IsSelected && c.BeforePhoto != nil && c.AfterPhoto != nil
}

// Draft is the resumable snapshot of an in-progress site inspection.
type Draft struct {
	ID                 uuid.UUID          `json:"id"`
	SiteID             *int64             `json:"siteId"`
	SiteInfo           SiteInfo           `json:"siteInfo"`
	SelectedComponents []ComponentCapture `json:"selectedComponents"`
	CurrentStep        int                `json:"currentStep"`
	SubmissionKey      string             `json:"submissionKey,omitempty"`
	LastSavedAt        *time.Time         `json:"lastSavedAt"`
}

// NewDraft returns an empty draft with a fresh instance id and submission key.
// The submission key is sent as the Idempotency-Key of the visit it becomes.
func NewDraft() Draft {
	return Draft{ID: uuid.New(), SubmissionKey: NewSubmissionKey()}
}

// NewSubmissionKey returns a new time-ordered idempotency key.
func NewSubmissionKey() string {
	return ulid.Make().String()
}

// Clone returns a copy that shares no mutable slices or pointers with d
// (photo payloads excepted, see Photo).
func (d Draft) Clone() Draft {
	out := d
	if d.SiteID != nil {
		id := *d.SiteID
		out.SiteID = &id
	}
	if d.SiteInfo.Coordinates != nil {
		c := *d.SiteInfo.Coordinates
		out.SiteInfo.Coordinates = &c
	}
	if d.LastSavedAt != nil {
		t := *d.LastSavedAt
		out.LastSavedAt = &t
	}
	if d.SelectedComponents != nil {
		out.SelectedComponents = make([]ComponentCapture, len(d.SelectedComponents))
		copy(out.SelectedComponents, d.SelectedComponents)
	}
	return out
}

// Component returns the capture with the given id.
func (d Draft) Component(id int64) (ComponentCapture, bool) {
	for _, c := range d.SelectedComponents {
		if c.ID == id {
			return c, true
		}
	}
	return ComponentCapture{}, false
}

// Selected returns the captures with IsSelected set, in draft order.
func (d Draft) Selected() []ComponentCapture {
	var out []ComponentCapture
	for _, c := range d.SelectedComponents {
		if c.IsSelected {
			out = append(out, c)
		}
	}
	return out
}

// IsEmpty reports whether nothing has been captured yet.
func (d Draft) IsEmpty() bool {
	return d.SiteID == nil && d.SiteInfo == (SiteInfo{}) && len(d.SelectedComponents) == 0
}
