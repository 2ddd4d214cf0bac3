package team

import (
	"context"
)

type StubRepository struct {
	Members []TeamMember
	nextID  int
}

func (s *StubRepository) List(ctx context.Context) ([]TeamMember, error) {
	return s.Members, nil
}

func (s *StubRepository) Get(ctx context.Context, id int) (*TeamMember, error) {
	for i := range s.Members {
		if s.Members[i].ID == id {
			m := s.Members[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) Create(ctx context.Context, member TeamMember) (TeamMember, error) {
	s.nextID++
	member.ID = s.nextID
	s.Members = append(s.Members, member)
	return member, nil
}

func (s *StubRepository) Update(ctx context.Context, member TeamMember) error {
	for i := range s.Members {
		if s.Members[i].ID == member.ID {
			s.Members[i] = member
			return nil
		}
	}
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, id int) error {
	for i := range s.Members {
		if s.Members[i].ID == id {
			s.Members = append(s.Members[:i], s.Members[i+1:]...)
			return nil
		}
	}
	return nil
}
