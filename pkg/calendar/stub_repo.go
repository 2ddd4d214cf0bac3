package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StubRepository is an in-memory Repository for tests. Events keep insertion
// order; CreatedAt is assigned from a monotonic sequence so creation-order
// tie-breaking is deterministic.
type StubRepository struct {
	Events []Event
	seq    int
}

func (s *StubRepository) StoreEvent(ctx context.Context, event Event) (Event, error) {
	if event.UID == uuid.Nil {
		event.UID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		s.seq++
		event.CreatedAt = time.Unix(0, 0).UTC().Add(time.Duration(s.seq) * time.Second)
	}
	s.Events = append(s.Events, event)
	return event, nil
}

func (s *StubRepository) GetEvent(ctx context.Context, uid uuid.UUID) (*Event, error) {
	for i := range s.Events {
		if s.Events[i].UID == uid {
			event := s.Events[i]
			return &event, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	events := make([]Event, 0, len(s.Events))
	for _, event := range s.Events {
		if !event.StartTime.After(to) && !event.EndTime.Before(from) {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *StubRepository) GetEventsByType(ctx context.Context, eventType EventType) ([]Event, error) {
	events := make([]Event, 0, len(s.Events))
	for _, event := range s.Events {
		if event.Type == eventType {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *StubRepository) GetByLinkedEntity(ctx context.Context, eventType EventType, linkedEntityID int) ([]Event, error) {
	events := make([]Event, 0, 1)
	for _, event := range s.Events {
		if event.Type == eventType && event.LinkedEntityID == linkedEntityID {
			events = append(events, event)
		}
	}
	return events, nil
}

func (s *StubRepository) GetBirthdayEvents(ctx context.Context, teamMemberID int) ([]Event, error) {
	events := make([]Event, 0, len(s.Events))
	for _, event := range s.Events {
		if event.Type != EventTypeBirthday {
			continue
		}
		if teamMemberID != 0 && event.TeamMemberID != teamMemberID {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *StubRepository) UpdateEvent(ctx context.Context, event Event) error {
	for i := range s.Events {
		if s.Events[i].UID == event.UID {
			event.CreatedAt = s.Events[i].CreatedAt
			s.Events[i] = event
			return nil
		}
	}
	return nil
}

func (s *StubRepository) DeleteEvent(ctx context.Context, uid uuid.UUID) error {
	for i := range s.Events {
		if s.Events[i].UID == uid {
			s.Events = append(s.Events[:i], s.Events[i+1:]...)
			return nil
		}
	}
	return nil
}
