package outofoffice

import "time"

const (
	TypeVacation  = "vacation"
	TypeSickLeave = "sick_leave"
	TypePersonal  = "personal"
	TypeOther     = "other"
)

// Period is a time range during which a team member is away.
type Period struct {
	ID           int
	TeamMemberID int
	PeriodType   string
	StartTime    time.Time
	EndTime      time.Time
}
