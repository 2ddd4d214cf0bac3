package outofoffice

import (
	"context"
)

type StubRepository struct {
	Periods []Period
	nextID  int
}

func (s *StubRepository) List(ctx context.Context) ([]Period, error) {
	return s.Periods, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (*Period, error) {
	for i := range s.Periods {
		if s.Periods[i].ID == id {
			period := s.Periods[i]
			return &period, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) Create(ctx context.Context, period Period) (Period, error) {
	s.nextID++
	period.ID = s.nextID
	s.Periods = append(s.Periods, period)
	return period, nil
}

func (s *StubRepository) Update(ctx context.Context, period Period) error {
	for i := range s.Periods {
		if s.Periods[i].ID == period.ID {
			s.Periods[i] = period
			return nil
		}
	}
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) error {
	for i := range s.Periods {
		if s.Periods[i].ID == id {
			s.Periods = append(s.Periods[:i], s.Periods[i+1:]...)
			return nil
		}
	}
	return nil
}
