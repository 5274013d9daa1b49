package loan

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/api"
)

//go:generate mockgen -source=service.go -destination=api_mock.go -package=loan

// API is the slice of the HTTP client the loan service needs.
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

func (s *Service) ListBySacco(ctx context.Context, saccoID int64) ([]Loan, error) {
	var loans []Loan
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/loans/", saccoID), &loans); err != nil {
		return nil, fmt.Errorf("fetching loans: %w", err)
	}

	return loans, nil
}

func (s *Service) ListByMember(ctx context.Context, saccoID, membershipID int64) ([]Loan, error) {
	var loans []Loan
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/loans/?membership=%d", saccoID, membershipID), &loans); err != nil {
		return nil, fmt.Errorf("fetching member loans: %w", err)
	}

	return loans, nil
}

func (s *Service) ListByUser(ctx context.Context, saccoID, userID int64) ([]Loan, error) {
	var loans []Loan
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/loans/?user=%d", saccoID, userID), &loans); err != nil {
		return nil, fmt.Errorf("fetching user loans: %w", err)
	}

	return loans, nil
}

func (s *Service) Get(ctx context.Context, saccoID, loanID int64) (Loan, error) {
	var l Loan
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/loans/%d/", saccoID, loanID), &l); err != nil {
		return Loan{}, fmt.Errorf("fetching loan details: %w", err)
	}

	return l, nil
}

type CreateParams struct {
	Amount         decimal.Decimal `json:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	InterestPeriod InterestPeriod  `json:"interest_period" validate:"required,oneof=MONTHLY YEARLY"`
	DueDate        api.Date        `json:"due_date"`
	Purpose        string          `json:"purpose" validate:"required"`
}

func (s *Service) Create(ctx context.Context, saccoID int64, params CreateParams) (Loan, error) {
	if !params.Amount.IsPositive() {
		return Loan{}, ErrInvalidAmount
	}

	if params.InterestRate.IsNegative() {
		return Loan{}, fmt.Errorf("interest rate cannot be negative")
	}

	if err := validate.Struct(params); err != nil {
		return Loan{}, fmt.Errorf("invalid loan application: %w", err)
	}

	var l Loan
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/loans/", saccoID), params, &l); err != nil {
		return Loan{}, fmt.Errorf("creating loan: %w", err)
	}

	return l, nil
}

// Approve moves PENDING -> APPROVED. The server records the approval date
// and remains the authority; the gate here only prevents doomed requests.
func (s *Service) Approve(ctx context.Context, l Loan, manager bool) (Loan, error) {
	if err := CanApprove(l, manager); err != nil {
		return Loan{}, err
	}

	var updated Loan
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/loans/%d/approve/", l.SaccoID, l.ID), nil, &updated); err != nil {
		return Loan{}, fmt.Errorf("approving loan: %w", err)
	}

	return updated, nil
}

// Disburse moves APPROVED -> DISBURSED. The server also writes the matching
// Sacco transaction record; the client never constructs that record itself.
func (s *Service) Disburse(ctx context.Context, l Loan, manager bool) (Loan, error) {
	if err := CanDisburse(l, manager); err != nil {
		return Loan{}, err
	}

	var updated Loan
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/loans/%d/disburse/", l.SaccoID, l.ID), nil, &updated); err != nil {
		return Loan{}, fmt.Errorf("disbursing loan: %w", err)
	}

	return updated, nil
}

func (s *Service) Repayments(ctx context.Context, loanID int64) ([]Repayment, error) {
	var repayments []Repayment
	if err := s.api.Get(ctx, fmt.Sprintf("loans/%d/repayments/", loanID), &repayments); err != nil {
		return nil, fmt.Errorf("fetching repayments: %w", err)
	}

	return repayments, nil
}

type RepaymentParams struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     api.Date        `json:"payment_date"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// AddRepayment posts a repayment, then refetches the full repayment list and
// derives fresh totals from it. Completion is decided server-side; no status
// transition is attempted here.
func (s *Service) AddRepayment(ctx context.Context, l Loan, userID int64, manager bool, params RepaymentParams) ([]Repayment, Summary, error) {
	if err := CanRepay(l, userID, manager, params.Amount); err != nil {
		return nil, Summary{}, err
	}

	if err := s.api.Post(ctx, fmt.Sprintf("loans/%d/repayments/", l.ID), params, nil); err != nil {
		return nil, Summary{}, fmt.Errorf("adding repayment: %w", err)
	}

	repayments, err := s.Repayments(ctx, l.ID)
	if err != nil {
		return nil, Summary{}, err
	}

	return repayments, Summarize(l.Amount, repayments), nil
}
