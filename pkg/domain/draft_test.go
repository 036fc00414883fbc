package domain

import (
	"testing"
	"time"
)

func TestComponentCaptureSubmittable(t *testing.T) {
	photo := &Photo{FileName: "a.jpg"}
	tests := []struct {
		name string
		c    ComponentCapture
		want bool
	}{
		{"selected with both photos", ComponentCapture{IsSelected: true, BeforePhoto: photo, AfterPhoto: photo}, true},
		{"selected before only", ComponentCapture{IsSelected: true, BeforePhoto: photo}, false},
		{"selected after only", ComponentCapture{IsSelected: true, AfterPhoto: photo}, false},
		{"unselected with both photos", ComponentCapture{BeforePhoto: photo, AfterPhoto: photo}, false},
		{"selected no photos", ComponentCapture{IsSelected: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Submittable(); got != tt.want {
				t.Errorf("Submittable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDraftCloneIsIndependent(t *testing.T) {
	id := int64(7)
	now := time.Now()
	d := Draft{
		SiteID:      &id,
		SiteInfo:    SiteInfo{Name: "north", Coordinates: &Coordinates{Lat: 1, Lng: 2}},
		LastSavedAt: &now,
		SelectedComponents: []ComponentCapture{
			{ID: 1, Name: "pump", IsSelected: true},
		},
	}

	c := d.Clone()
	*c.SiteID = 99
	c.SiteInfo.Coordinates.Lat = 50
	c.SelectedComponents[0].Name = "changed"

	if *d.SiteID != 7 {
		t.Errorf("SiteID = %d, want 7", *d.SiteID)
	}
	if d.SiteInfo.Coordinates.Lat != 1 {
		t.Errorf("Coordinates.Lat = %v, want 1", d.SiteInfo.Coordinates.Lat)
	}
	if d.SelectedComponents[0].Name != "pump" {
		t.Errorf("component name = %q, want %q", d.SelectedComponents[0].Name, "pump")
	}
}

func TestDraftSelected(t *testing.T) {
	d := Draft{SelectedComponents: []ComponentCapture{
		{ID: 1, IsSelected: true},
		{ID: 2},
		{ID: 3, IsSelected: true},
	}}
	got := d.Selected()
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("Selected() = %+v, want ids [1 3]", got)
	}
}

func TestDraftIsEmpty(t *testing.T) {
	if !NewDraft().IsEmpty() {
		t.Error("NewDraft().IsEmpty() = false, want true")
	}
	d := NewDraft()
	d.SiteInfo.Notes = "gate code 1234"
	if d.IsEmpty() {
		t.Error("IsEmpty() = true after notes were set")
	}
}

func TestUserProfileHasRole(t *testing.T) {
	u := &UserProfile{Role: RoleEngineer}
	if !u.HasRole(RoleAdmin, RoleEngineer) {
		t.Error("HasRole(admin, engineer) = false, want true")
	}
	if u.HasRole(RoleAdmin) {
		t.Error("HasRole(admin) = true, want false")
	}
	var nilUser *UserProfile
	if nilUser.HasRole(RoleAdmin) {
		t.Error("nil HasRole = true, want false")
	}
}

func TestNewDraftKeys(t *testing.T) {
	a, b := NewDraft(), NewDraft()
	if a.ID == b.ID {
		t.Error("two drafts share an instance id")
	}
	if a.SubmissionKey == "" || a.SubmissionKey == b.SubmissionKey {
		t.Errorf("submission keys %q / %q, want distinct non-empty keys", a.SubmissionKey, b.SubmissionKey)
	}
	if len(a.SubmissionKey) != 26 {
		t.Errorf("len(SubmissionKey) = %d, want 26 (ULID)", len(a.SubmissionKey))
	}
}
