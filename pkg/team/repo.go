package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	List(ctx context.Context) ([]TeamMember, error)
	Get(ctx context.Context, id int) (*TeamMember, error)
	Create(ctx context.Context, member TeamMember) (TeamMember, error)
	Update(ctx context.Context, member TeamMember) error
	Delete(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) List(ctx context.Context) ([]TeamMember, error) {
	query := `SELECT id, name, email, role, birthday FROM team_member ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query team members: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	members := make([]TeamMember, 0, 10)
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Birthday); err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (*TeamMember, error) {
	query := `SELECT id, name, email, role, birthday FROM team_member WHERE id = $1`

	var m TeamMember
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Email, &m.Role, &m.Birthday)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("could not query team member %d: %w", id, err)
		log.Error(err)
		return nil, err
	}
	return &m, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, member TeamMember) (TeamMember, error) {
	query := `INSERT INTO team_member (name, email, role, birthday) VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, member.Name, member.Email, member.Role, member.Birthday).Scan(&member.ID)
	if err != nil {
		err := fmt.Errorf("could not create team member: %w", err)
		log.Error(err)
		return TeamMember{}, err
	}
	return member, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, member TeamMember) error {
	query := `UPDATE team_member SET name = $1, email = $2, role = $3, birthday = $4 WHERE id = $5`

	_, err := r.db.ExecContext(ctx, query, member.Name, member.Email, member.Role, member.Birthday, member.ID)
	if err != nil {
		err := fmt.Errorf("could not update team member %d: %w", member.ID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM team_member WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		err := fmt.Errorf("could not delete team member %d: %w", id, err)
		log.Error(err)
		return err
	}
	return nil
}
