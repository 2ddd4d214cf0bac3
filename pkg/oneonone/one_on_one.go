package oneonone

import (
	"time"

	"github.com/google/uuid"
)

// OneOnOne is a recurring one-on-one meeting record for a single team member.
// NextMeetingTime is nil while no meeting is scheduled. NextMeetingEventID is
// the back-reference into the calendar store and is the only field on a
// source record the sync engine is allowed to write.
type OneOnOne struct {
	ID                 int
	TeamMemberID       int
	NextMeetingTime    *time.Time
	NextMeetingEventID *uuid.UUID
	Notes              string
}
