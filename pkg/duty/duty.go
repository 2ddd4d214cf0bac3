package duty

import "time"

const (
	TypeOnCall  = "on_call"
	TypeSupport = "support"
	TypeRelease = "release"
	TypeTriage  = "triage"
)

// Assignment is a duty rotation slot assigned to one team member.
type Assignment struct {
	ID           int
	TeamMemberID int
	DutyType     string
	Title        string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
}
