// Package dividend covers yearly profit distributions and their per-member
// allocations.
package dividend

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Dividend struct {
	ID           int64           `json:"id"`
	SaccoID      int64           `json:"sacco"`
	Year         int             `json:"year"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Description  string          `json:"description,omitempty"`
	Distributed  bool            `json:"distributed"`
	DeclaredDate time.Time       `json:"declared_date"`
}

// MemberDividend is one member's share of a declared dividend.
type MemberDividend struct {
	ID              int64           `json:"id"`
	DividendID      int64           `json:"dividend"`
	MembershipID    int64           `json:"membership"`
	MemberName      string          `json:"member_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Paid            bool            `json:"paid"`
	TransactionCode string          `json:"transaction_code,omitempty"`
}

// API is the slice of the HTTP client the dividend service needs.
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

func (s *Service) ListBySacco(ctx context.Context, saccoID int64) ([]Dividend, error) {
	var dividends []Dividend
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/dividends/", saccoID), &dividends); err != nil {
		return nil, fmt.Errorf("fetching dividends: %w", err)
	}

	return dividends, nil
}

func (s *Service) Get(ctx context.Context, saccoID, dividendID int64) (Dividend, error) {
	var d Dividend
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/dividends/%d/", saccoID, dividendID), &d); err != nil {
		return Dividend{}, fmt.Errorf("fetching dividend details: %w", err)
	}

	return d, nil
}

type DeclareParams struct {
	Year        int             `json:"year" validate:"required,gte=2000"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Description string          `json:"description,omitempty"`
}

func (s *Service) Declare(ctx context.Context, saccoID int64, params DeclareParams) (Dividend, error) {
	if !params.TotalAmount.IsPositive() {
		return Dividend{}, fmt.Errorf("total amount must be a positive number")
	}

	if err := validate.Struct(params); err != nil {
		return Dividend{}, fmt.Errorf("invalid dividend: %w", err)
	}

	var d Dividend
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/dividends/", saccoID), params, &d); err != nil {
		return Dividend{}, fmt.Errorf("declaring dividend: %w", err)
	}

	return d, nil
}

// Distribute allocates the declared amount across members. The allocation is
// computed server-side.
func (s *Service) Distribute(ctx context.Context, saccoID, dividendID int64) (Dividend, error) {
	var d Dividend
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/dividends/%d/distribute/", saccoID, dividendID), nil, &d); err != nil {
		return Dividend{}, fmt.Errorf("distributing dividend: %w", err)
	}

	return d, nil
}

func (s *Service) MemberDividends(ctx context.Context, dividendID int64) ([]MemberDividend, error) {
	var allocations []MemberDividend
	if err := s.api.Get(ctx, fmt.Sprintf("dividends/%d/member-dividends/", dividendID), &allocations); err != nil {
		return nil, fmt.Errorf("fetching member dividends: %w", err)
	}

	return allocations, nil
}

func (s *Service) MarkPaid(ctx context.Context, dividendID, memberDividendID int64, transactionCode string) (MemberDividend, error) {
	body := map[string]string{"transaction_code": transactionCode}

	var md MemberDividend
	path := fmt.Sprintf("dividends/%d/member-dividends/%d/mark_paid/", dividendID, memberDividendID)
	if err := s.api.Post(ctx, path, body, &md); err != nil {
		return MemberDividend{}, fmt.Errorf("marking dividend paid: %w", err)
	}

	return md, nil
}
