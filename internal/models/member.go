package models

import "time"

// Member is an entry in the congregation directory.
type Member struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Membership string    `json:"membership"` // active, inactive, visitor
	JoinedAt   string    `json:"joined_at,omitempty"` // calendar date
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Contribution is a single financial gift. Amounts are stored in cents.
type Contribution struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"member_id,omitempty"`
	Fund        string    `json:"fund"`
	AmountCents int64     `json:"amount_cents"`
	Date        string    `json:"date"` // calendar date
	Method      string    `json:"method"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AttendanceRecord is the head count for one service.
type AttendanceRecord struct {
	ID          string    `json:"id"`
	ServiceDate string    `json:"service_date"` // calendar date
	ServiceType string    `json:"service_type"`
	Adults      int       `json:"adults"`
	Children    int       `json:"children"`
	Visitors    int       `json:"visitors"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Total returns the combined head count.
func (a AttendanceRecord) Total() int {
	return a.Adults + a.Children + a.Visitors
}
