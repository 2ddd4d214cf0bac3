package calendar

import (
	"time"

	"github.com/google/uuid"
)

// EventType says which kind of source record an event was derived from.
type EventType string

const (
	EventTypeOneOnOne    EventType = "one_on_one"
	EventTypeDuty        EventType = "duty"
	EventTypeOutOfOffice EventType = "out_of_office"
	EventTypeBirthday    EventType = "birthday"
)

// Linked entity types stored alongside the linked entity id.
const (
	LinkedOneOnOne    = "one_on_one"
	LinkedDuty        = "duty"
	LinkedOutOfOffice = "out_of_office"
	LinkedTeamMember  = "team_member"
)

const RecurrenceYearly = "yearly"

// Recurrence marks an event as repeating. Only yearly recurrence is used
// (birthday events); non-recurring events carry a nil Recurrence.
type Recurrence struct {
	Type     string
	Interval int
}

// Event is a calendar entry derived from a source record. Events are created
// and deleted exclusively by the sync engine; LinkedEntityType/LinkedEntityID
// point back at the record the event was derived from.
type Event struct {
	UID              uuid.UUID
	Title            string
	Description      string
	StartTime        time.Time
	EndTime          time.Time
	AllDay           bool
	Type             EventType
	TeamMemberID     int
	LinkedEntityType string
	LinkedEntityID   int
	Recurrence       *Recurrence
	CreatedAt        time.Time
}

// SameCalendarDay reports whether the event starts on the given UTC day.
func (e Event) SameCalendarDay(t time.Time) bool {
	y1, m1, d1 := e.StartTime.UTC().Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
