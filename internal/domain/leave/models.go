package leave

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether a status permits no further transition.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Domain separates the two leave-type catalogues the portal carries:
// the employee self-service flow and the administratively recorded flow
// used by department heads. They are intentionally kept apart; see the
// policy table for the catalogue each domain registers.
type Domain string

const (
	DomainSelfService    Domain = "self_service"
	DomainAdministrative Domain = "administrative"
)

type Category struct {
	Domain Domain `json:"domain"`
	Code   string `json:"code"`
}

// Self-service leave codes.
const (
	CodePlanned   = "planned"
	CodeUnplanned = "unplanned"
	CodeSick      = "sick"
)

// Administrative leave codes.
const (
	CodeAnnual = "annual"
	CodeCasual = "casual"
)

func (c Category) String() string {
	return string(c.Domain) + "/" + c.Code
}

type Request struct {
	ID            string    `json:"id"`
	RequesterID   string    `json:"requesterId"`
	RequesterRole string    `json:"requesterRole"`
	Category      Category  `json:"category"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Reason        string    `json:"reason"`
	DocumentRef   string    `json:"documentRef,omitempty"`
	Status        Status    `json:"status"`
	TotalDays     int       `json:"totalDays"`
	SelfRequest   bool      `json:"selfRequest"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Active reports whether the request still consumes calendar time.
func (r Request) Active() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}
