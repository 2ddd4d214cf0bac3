package duty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	List(ctx context.Context) ([]Assignment, error)
	Get(ctx context.Context, id int) (*Assignment, error)
	Create(ctx context.Context, assignment Assignment) (Assignment, error)
	Update(ctx context.Context, assignment Assignment) error
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Assignment, error) {
	query := `SELECT id, team_member_id, duty_type, title, description, start_time, end_time
	          FROM duty_assignment ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query duty assignments: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0, 10)
	for rows.Next() {
		assignment, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (*Assignment, error) {
	query := `SELECT id, team_member_id, duty_type, title, description, start_time, end_time
	          FROM duty_assignment WHERE id = $1`

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not query duty assignment %d: %w", id, err)
		log.Error(err)
		return nil, err
	}
	return &assignment, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, assignment Assignment) (Assignment, error) {
	query := `INSERT INTO duty_assignment (team_member_id, duty_type, title, description, start_time, end_time)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, assignment.TeamMemberID, assignment.DutyType, assignment.Title,
		assignment.Description, assignment.StartTime.UnixMilli(), assignment.EndTime.UnixMilli()).Scan(&assignment.ID)
	if err != nil {
		err := fmt.Errorf("could not create duty assignment: %w", err)
		log.Error(err)
		return Assignment{}, err
	}
	return assignment, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, assignment Assignment) error {
	query := `UPDATE duty_assignment SET team_member_id = $1, duty_type = $2, title = $3, description = $4,
	          start_time = $5, end_time = $6 WHERE id = $7`

	_, err := r.db.ExecContext(ctx, query, assignment.TeamMemberID, assignment.DutyType, assignment.Title,
		assignment.Description, assignment.StartTime.UnixMilli(), assignment.EndTime.UnixMilli(), assignment.ID)
	if err != nil {
		err := fmt.Errorf("could not update duty assignment %d: %w", assignment.ID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM duty_assignment WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		err := fmt.Errorf("could not delete duty assignment %d: %w", id, err)
		log.Error(err)
		return err
	}
	return nil
}

func scanAssignment(scan func(dest ...any) error) (Assignment, error) {
	var assignment Assignment
	var startMillis, endMillis int64
	if err := scan(&assignment.ID, &assignment.TeamMemberID, &assignment.DutyType, &assignment.Title,
		&assignment.Description, &startMillis, &endMillis); err != nil {
		return Assignment{}, err
	}
	assignment.StartTime = time.UnixMilli(startMillis).UTC()
	assignment.EndTime = time.UnixMilli(endMillis).UTC()
	return assignment, nil
}
