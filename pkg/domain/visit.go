package domain

// VisitComponent is one inspected component inside a visit submission.
type VisitComponent struct {
	ComponentID   int64  `json:"componentId"`
	BeforePhoto   *Photo `json:"beforePhoto"`
	AfterPhoto    *Photo `json:"afterPhoto"`
	BeforeComment string `json:"beforeComment,omitempty"`
	AfterComment  string `json:"afterComment,omitempty"`
}

// CreateVisitRequest is the payload for POST /visits.
type CreateVisitRequest struct {
	SiteID     int64            `json:"siteId"`
	SiteInfo   SiteInfo         `json:"siteInfo"`
	Components []VisitComponent `json:"components"`
}

// VisitCreated is the response of POST /visits.
type VisitCreated struct {
	VisitID int64 `json:"visitId"`
}
