package notifications

import "time"

const (
	KindNewRequest   = "new_request"
	KindStatusChange = "status_change"
)

// AdminAudience is the recipient key for entries addressed to every admin
// rather than one user. Admin consumers list with this key.
const AdminAudience = "admins"

type Entry struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	SubjectID string    `json:"subjectRequestId"`
	Kind      string    `json:"kind"`
	LeaveType string    `json:"leaveType"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// Sink is the outbound boundary the leave engine appends through.
type Sink interface {
	Append(entry Entry)
}
