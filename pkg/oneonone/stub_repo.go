package oneonone

import (
	"context"
)

type StubRepository struct {
	Records []OneOnOne
	nextID  int
}

func (s *StubRepository) List(ctx context.Context) ([]OneOnOne, error) {
	return s.Records, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (*OneOnOne, error) {
	for i := range s.Records {
		if s.Records[i].ID == id {
			record := s.Records[i]
			return &record, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) Create(ctx context.Context, record OneOnOne) (OneOnOne, error) {
	s.nextID++
	record.ID = s.nextID
	s.Records = append(s.Records, record)
	return record, nil
}

func (s *StubRepository) Update(ctx context.Context, record OneOnOne) error {
	for i := range s.Records {
		if s.Records[i].ID == record.ID {
			s.Records[i] = record
			return nil
		}
	}
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) error {
	for i := range s.Records {
		if s.Records[i].ID == id {
			s.Records = append(s.Records[:i], s.Records[i+1:]...)
			return nil
		}
	}
	return nil
}
