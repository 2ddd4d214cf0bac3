package oneonone

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
	List(ctx context.Context) ([]OneOnOne, error)
	Get(ctx context.Context, id int) (*OneOnOne, error)
	Create(ctx context.Context, record OneOnOne) (OneOnOne, error)
	Update(ctx context.Context, record OneOnOne) error
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]OneOnOne, error) {
	query := `SELECT id, team_member_id, next_meeting_time, next_meeting_event_id, notes
	          FROM one_on_one ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query one-on-one records: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	records := make([]OneOnOne, 0, 10)
	for rows.Next() {
		record, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (*OneOnOne, error) {
	query := `SELECT id, team_member_id, next_meeting_time, next_meeting_event_id, notes
	          FROM one_on_one WHERE id = $1`

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not query one-on-one %d: %w", id, err)
		log.Error(err)
		return nil, err
	}
	return &record, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, record OneOnOne) (OneOnOne, error) {
	query := `INSERT INTO one_on_one (team_member_id, next_meeting_time, next_meeting_event_id, notes)
	          VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, record.TeamMemberID, timeToMillis(record.NextMeetingTime),
		uuidToString(record.NextMeetingEventID), record.Notes).Scan(&record.ID)
	if err != nil {
		err := fmt.Errorf("could not create one-on-one record: %w", err)
		log.Error(err)
		return OneOnOne{}, err
	}
	return record, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, record OneOnOne) error {
	query := `UPDATE one_on_one SET team_member_id = $1, next_meeting_time = $2, next_meeting_event_id = $3, notes = $4
	          WHERE id = $5`

	_, err := r.db.ExecContext(ctx, query, record.TeamMemberID, timeToMillis(record.NextMeetingTime),
		uuidToString(record.NextMeetingEventID), record.Notes, record.ID)
	if err != nil {
		err := fmt.Errorf("could not update one-on-one %d: %w", record.ID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM one_on_one WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		err := fmt.Errorf("could not delete one-on-one %d: %w", id, err)
		log.Error(err)
		return err
	}
	return nil
}

func scanRecord(scan func(dest ...any) error) (OneOnOne, error) {
	var record OneOnOne
	var meetingMillis sql.NullInt64
	var eventID sql.NullString
	if err := scan(&record.ID, &record.TeamMemberID, &meetingMillis, &eventID, &record.Notes); err != nil {
		return OneOnOne{}, err
	}
	if meetingMillis.Valid {
		t := time.UnixMilli(meetingMillis.Int64).UTC()
		record.NextMeetingTime = &t
	}
	if eventID.Valid && eventID.String != "" {
		uid, err := uuid.Parse(eventID.String)
		if err != nil {
			return OneOnOne{}, fmt.Errorf("invalid event id %q on one-on-one %d: %w", eventID.String, record.ID, err)
		}
		record.NextMeetingEventID = &uid
	}
	return record, nil
}

func timeToMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func uuidToString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
