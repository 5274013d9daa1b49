package sacco

import (
	"context"
	"sync"
)

// Selection holds the saccos the user belongs to and the one currently
// active. Every child view reads the current sacco from here; it is cleared
// on logout.
type Selection struct {
	service *Service

	mu      sync.RWMutex
	saccos  []Sacco
	current *Sacco
}

func NewSelection(service *Service) *Selection {
	return &Selection{service: service}
}

// Load refreshes the user's sacco list. When nothing is selected yet, the
// first sacco becomes current.
func (s *Selection) Load(ctx context.Context) ([]Sacco, error) {
	saccos, err := s.service.ListMine(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.saccos = saccos
	if s.current == nil && len(saccos) > 0 {
		s.current = &saccos[0]
	}

	return saccos, nil
}

// Select makes the sacco with the given id current. Returns false when the
// user does not belong to it.
func (s *Selection) Select(saccoID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.saccos {
		if s.saccos[i].ID == saccoID {
			s.current = &s.saccos[i]
			return true
		}
	}

	return false
}

func (s *Selection) Current() *Sacco {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

func (s *Selection) CurrentID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return 0
	}

	return s.current.ID
}

func (s *Selection) Saccos() []Sacco {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saccos
}

// Add registers a newly created sacco and makes it current.
func (s *Selection) Add(sc Sacco) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saccos = append(s.saccos, sc)
	s.current = &s.saccos[len(s.saccos)-1]
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saccos = nil
	s.current = nil
}
