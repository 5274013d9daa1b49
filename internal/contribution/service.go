// Package contribution covers member deposits: share capital and recurring
// monthly contributions.
package contribution

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/api"
)

type Type string

const (
	TypeShareCapital Type = "SHARE_CAPITAL"
	TypeMonthly      Type = "MONTHLY"
)

type Contribution struct {
	ID              int64           `json:"id"`
	SaccoID         int64           `json:"sacco"`
	MembershipID    int64           `json:"membership"`
	MemberName      string          `json:"member_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Type            Type            `json:"contribution_type"`
	ContributedDate api.Date        `json:"contributed_date"`
	RecordedDate    time.Time       `json:"recorded_date"`
}

// API is the slice of the HTTP client the contribution service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

var validate = validator.New()

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) ListBySacco(ctx context.Context, saccoID int64) ([]Contribution, error) {
	var contributions []Contribution
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/contributions/", saccoID), &contributions); err != nil {
		return nil, fmt.Errorf("fetching contributions: %w", err)
	}

	return contributions, nil
}

func (s *Service) ListByMember(ctx context.Context, saccoID, membershipID int64) ([]Contribution, error) {
	var contributions []Contribution
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/contributions/?membership=%d", saccoID, membershipID), &contributions); err != nil {
		return nil, fmt.Errorf("fetching member contributions: %w", err)
	}

	return contributions, nil
}

func (s *Service) ListByUser(ctx context.Context, saccoID, userID int64) ([]Contribution, error) {
	var contributions []Contribution
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/contributions/?user=%d", saccoID, userID), &contributions); err != nil {
		return nil, fmt.Errorf("fetching user contributions: %w", err)
	}

	return contributions, nil
}

type CreateParams struct {
	MembershipID    int64           `json:"membership" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Type            Type            `json:"contribution_type" validate:"required,oneof=SHARE_CAPITAL MONTHLY"`
	ContributedDate api.Date        `json:"contributed_date"`
}

func (s *Service) Create(ctx context.Context, saccoID int64, params CreateParams) (Contribution, error) {
	if !params.Amount.IsPositive() {
		return Contribution{}, fmt.Errorf("amount must be a positive number")
	}

	if err := validate.Struct(params); err != nil {
		return Contribution{}, fmt.Errorf("invalid contribution: %w", err)
	}

	var c Contribution
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/contributions/", saccoID), params, &c); err != nil {
		return Contribution{}, fmt.Errorf("creating contribution: %w", err)
	}

	return c, nil
}
