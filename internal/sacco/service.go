package sacco

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// API is the slice of the HTTP client the sacco service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

var validate = validator.New()

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// ListMine returns the saccos the authenticated user belongs to.
func (s *Service) ListMine(ctx context.Context) ([]Sacco, error) {
	var saccos []Sacco
	if err := s.api.Get(ctx, "saccos/", &saccos); err != nil {
		return nil, fmt.Errorf("fetching saccos: %w", err)
	}

	return saccos, nil
}

func (s *Service) Get(ctx context.Context, saccoID int64) (Sacco, error) {
	var sc Sacco
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/", saccoID), &sc); err != nil {
		return Sacco{}, fmt.Errorf("fetching sacco details: %w", err)
	}

	return sc, nil
}

type CreateParams struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Sacco, error) {
	if err := validate.Struct(params); err != nil {
		return Sacco{}, fmt.Errorf("invalid sacco: %w", err)
	}

	var sc Sacco
	if err := s.api.Post(ctx, "saccos/", params, &sc); err != nil {
		return Sacco{}, fmt.Errorf("creating sacco: %w", err)
	}

	return sc, nil
}

func (s *Service) Update(ctx context.Context, saccoID int64, params CreateParams) (Sacco, error) {
	if err := validate.Struct(params); err != nil {
		return Sacco{}, fmt.Errorf("invalid sacco: %w", err)
	}

	var sc Sacco
	if err := s.api.Put(ctx, fmt.Sprintf("saccos/%d/", saccoID), params, &sc); err != nil {
		return Sacco{}, fmt.Errorf("updating sacco: %w", err)
	}

	return sc, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]Sacco, error) {
	var saccos []Sacco
	if err := s.api.Get(ctx, "saccos/search/?q="+url.QueryEscape(query), &saccos); err != nil {
		return nil, fmt.Errorf("searching saccos: %w", err)
	}

	return saccos, nil
}

func (s *Service) RequestJoin(ctx context.Context, saccoID int64, message string) error {
	body := map[string]any{"sacco": saccoID, "message": message}

	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/join-requests/", saccoID), body, nil); err != nil {
		return fmt.Errorf("requesting to join: %w", err)
	}

	return nil
}

func (s *Service) Members(ctx context.Context, saccoID int64) ([]Member, error) {
	var members []Member
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/members/", saccoID), &members); err != nil {
		return nil, fmt.Errorf("fetching members: %w", err)
	}

	return members, nil
}

func (s *Service) Statistics(ctx context.Context, saccoID int64) (Statistics, error) {
	var stats Statistics
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/statistics/", saccoID), &stats); err != nil {
		return Statistics{}, fmt.Errorf("fetching statistics: %w", err)
	}

	return stats, nil
}
