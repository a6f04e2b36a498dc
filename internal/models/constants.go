package models

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	// MaxTitleLength максимальная длина заголовка задачи
	MaxTitleLength = 120

	// MaxNotesLength максимальная длина заметок
	MaxNotesLength = 2000

	// DateLayout формат календарной даты без времени
	DateLayout = "2006-01-02"
)

const (
	MembershipActive   = "active"
	MembershipInactive = "inactive"
	MembershipVisitor  = "visitor"
)

const (
	FundGeneral     = "general"
	FundMissions    = "missions"
	FundBuilding    = "building"
	FundBenevolence = "benevolence"
)

const (
	MethodCash   = "cash"
	MethodCheck  = "check"
	MethodCard   = "card"
	MethodOnline = "online"
)

const (
	ServiceSundayMorning = "sunday_morning"
	ServiceSundayEvening = "sunday_evening"
	ServiceMidweek       = "midweek"
	ServiceSpecial       = "special"
)

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is a recognized task priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidFund reports whether f is a recognized contribution fund.
func ValidFund(f string) bool {
	switch f {
	case FundGeneral, FundMissions, FundBuilding, FundBenevolence:
		return true
	}
	return false
}

// ValidServiceType reports whether s is a recognized service type.
func ValidServiceType(s string) bool {
	switch s {
	case ServiceSundayMorning, ServiceSundayEvening, ServiceMidweek, ServiceSpecial:
		return true
	}
	return false
}
