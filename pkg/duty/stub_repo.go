package duty

import (
	"context"
)

type StubRepository struct {
	Assignments []Assignment
	nextID      int
}

func (s *StubRepository) List(ctx context.Context) ([]Assignment, error) {
	return s.Assignments, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (*Assignment, error) {
	for i := range s.Assignments {
		if s.Assignments[i].ID == id {
			assignment := s.Assignments[i]
			return &assignment, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) Create(ctx context.Context, assignment Assignment) (Assignment, error) {
	s.nextID++
	assignment.ID = s.nextID
	s.Assignments = append(s.Assignments, assignment)
	return assignment, nil
}

func (s *StubRepository) Update(ctx context.Context, assignment Assignment) error {
	for i := range s.Assignments {
		if s.Assignments[i].ID == assignment.ID {
			s.Assignments[i] = assignment
			return nil
		}
	}
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) error {
	for i := range s.Assignments {
		if s.Assignments[i].ID == id {
			s.Assignments = append(s.Assignments[:i], s.Assignments[i+1:]...)
			return nil
		}
	}
	return nil
}
