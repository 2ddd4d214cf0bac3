package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	StoreEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, uid uuid.UUID) (*Event, error)
	GetEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	GetEventsByType(ctx context.Context, eventType EventType) ([]Event, error)
	GetByLinkedEntity(ctx context.Context, eventType EventType, linkedEntityID int) ([]Event, error)
	GetBirthdayEvents(ctx context.Context, teamMemberID int) ([]Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, uid uuid.UUID) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const eventColumns = `uid, title, description, start_time, end_time, all_day, event_type,
	team_member_id, linked_entity_type, linked_entity_id, recurrence_type, recurrence_interval, created_at`

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) (Event, error) {
	query := `INSERT INTO calendar_event (` + eventColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	if event.UID == uuid.Nil {
		event.UID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	recurrenceType, recurrenceInterval := "", 0
	if event.Recurrence != nil {
		recurrenceType = event.Recurrence.Type
		recurrenceInterval = event.Recurrence.Interval
	}

	_, err := r.db.ExecContext(ctx, query, event.UID.String(), event.Title, event.Description,
		event.StartTime.UnixMilli(), event.EndTime.UnixMilli(), event.AllDay, string(event.Type),
		event.TeamMemberID, event.LinkedEntityType, event.LinkedEntityID,
		recurrenceType, recurrenceInterval, event.CreatedAt.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not store calendar event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, uid uuid.UUID) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event WHERE uid = $1`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, uid.String()).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not query calendar event %s: %w", uid, err)
		log.Error(err)
		return nil, err
	}
	return &event, nil
}

func (r *RepositoryImpl) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	// Return all events that overlap with the given period.
	query := `SELECT ` + eventColumns + ` FROM calendar_event
	          WHERE start_time <= $1 AND end_time >= $2
	          ORDER BY start_time`

	return r.queryEvents(ctx, query, to.UnixMilli(), from.UnixMilli())
}

func (r *RepositoryImpl) GetEventsByType(ctx context.Context, eventType EventType) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event
	          WHERE event_type = $1 ORDER BY created_at`

	return r.queryEvents(ctx, query, string(eventType))
}

func (r *RepositoryImpl) GetByLinkedEntity(ctx context.Context, eventType EventType, linkedEntityID int) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event
	          WHERE event_type = $1 AND linked_entity_id = $2 ORDER BY created_at`

	return r.queryEvents(ctx, query, string(eventType), linkedEntityID)
}

// GetBirthdayEvents returns birthday events for one team member, or for all
// members when teamMemberID is zero.
func (r *RepositoryImpl) GetBirthdayEvents(ctx context.Context, teamMemberID int) ([]Event, error) {
	if teamMemberID == 0 {
		return r.GetEventsByType(ctx, EventTypeBirthday)
	}
	query := `SELECT ` + eventColumns + ` FROM calendar_event
	          WHERE event_type = $1 AND team_member_id = $2 ORDER BY created_at`

	return r.queryEvents(ctx, query, string(EventTypeBirthday), teamMemberID)
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, event Event) error {
	query := `UPDATE calendar_event SET title = $1, description = $2, start_time = $3, end_time = $4,
	          all_day = $5, team_member_id = $6, linked_entity_type = $7, linked_entity_id = $8
	          WHERE uid = $9`

	_, err := r.db.ExecContext(ctx, query, event.Title, event.Description,
		event.StartTime.UnixMilli(), event.EndTime.UnixMilli(), event.AllDay,
		event.TeamMemberID, event.LinkedEntityType, event.LinkedEntityID, event.UID.String())
	if err != nil {
		err := fmt.Errorf("could not update calendar event %s: %w", event.UID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, uid uuid.UUID) error {
	query := `DELETE FROM calendar_event WHERE uid = $1`

	_, err := r.db.ExecContext(ctx, query, uid.String())
	if err != nil {
		err := fmt.Errorf("could not delete calendar event %s: %w", uid, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 10)
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanEvent(scan func(dest ...any) error) (Event, error) {
	var event Event
	var uid string
	var eventType string
	var startMillis, endMillis, createdMillis int64
	var recurrenceType string
	var recurrenceInterval int
	if err := scan(&uid, &event.Title, &event.Description, &startMillis, &endMillis, &event.AllDay,
		&eventType, &event.TeamMemberID, &event.LinkedEntityType, &event.LinkedEntityID,
		&recurrenceType, &recurrenceInterval, &createdMillis); err != nil {
		return Event{}, err
	}
	parsed, err := uuid.Parse(uid)
	if err != nil {
		return Event{}, fmt.Errorf("invalid event uid %q: %w", uid, err)
	}
	event.UID = parsed
	event.Type = EventType(eventType)
	event.StartTime = time.UnixMilli(startMillis).UTC()
	event.EndTime = time.UnixMilli(endMillis).UTC()
	event.CreatedAt = time.UnixMilli(createdMillis).UTC()
	if recurrenceType != "" {
		event.Recurrence = &Recurrence{Type: recurrenceType, Interval: recurrenceInterval}
	}
	return event, nil
}
