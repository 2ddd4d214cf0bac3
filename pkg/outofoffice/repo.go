package outofoffice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	List(ctx context.Context) ([]Period, error)
	Get(ctx context.Context, id int) (*Period, error)
	Create(ctx context.Context, period Period) (Period, error)
	Update(ctx context.Context, period Period) error
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Period, error) {
	query := `SELECT id, team_member_id, period_type, start_time, end_time
	          FROM out_of_office ORDER BY start_time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query out-of-office periods: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	periods := make([]Period, 0, 10)
	for rows.Next() {
		period, err := scanPeriod(rows.Scan)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (*Period, error) {
	query := `SELECT id, team_member_id, period_type, start_time, end_time
	          FROM out_of_office WHERE id = $1`

	period, err := scanPeriod(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not query out-of-office period %d: %w", id, err)
		log.Error(err)
		return nil, err
	}
	return &period, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, period Period) (Period, error) {
	query := `INSERT INTO out_of_office (team_member_id, period_type, start_time, end_time)
	          VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, period.TeamMemberID, period.PeriodType,
		period.StartTime.UnixMilli(), period.EndTime.UnixMilli()).Scan(&period.ID)
	if err != nil {
		err := fmt.Errorf("could not create out-of-office period: %w", err)
		log.Error(err)
		return Period{}, err
	}
	return period, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, period Period) error {
	query := `UPDATE out_of_office SET team_member_id = $1, period_type = $2, start_time = $3, end_time = $4
	          WHERE id = $5`

	_, err := r.db.ExecContext(ctx, query, period.TeamMemberID, period.PeriodType,
		period.StartTime.UnixMilli(), period.EndTime.UnixMilli(), period.ID)
	if err != nil {
		err := fmt.Errorf("could not update out-of-office period %d: %w", period.ID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM out_of_office WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		err := fmt.Errorf("could not delete out-of-office period %d: %w", id, err)
		log.Error(err)
		return err
	}
	return nil
}

func scanPeriod(scan func(dest ...any) error) (Period, error) {
	var period Period
	var startMillis, endMillis int64
	if err := scan(&period.ID, &period.TeamMemberID, &period.PeriodType, &startMillis, &endMillis); err != nil {
		return Period{}, err
	}
	period.StartTime = time.UnixMilli(startMillis).UTC()
	period.EndTime = time.UnixMilli(endMillis).UTC()
	return period, nil
}
