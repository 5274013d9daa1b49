package debt

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/api"
)

// API is the slice of the HTTP client the debt service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
}

var validate = validator.New()

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) ListBySacco(ctx context.Context, saccoID int64) ([]Debt, error) {
	var debts []Debt
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/debts/", saccoID), &debts); err != nil {
		return nil, fmt.Errorf("fetching debts: %w", err)
	}

	return debts, nil
}

func (s *Service) ListByMember(ctx context.Context, saccoID, membershipID int64) ([]Debt, error) {
	var debts []Debt
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/debts/?membership=%d", saccoID, membershipID), &debts); err != nil {
		return nil, fmt.Errorf("fetching member debts: %w", err)
	}

	return debts, nil
}

func (s *Service) ListByUser(ctx context.Context, saccoID, userID int64) ([]Debt, error) {
	var debts []Debt
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/debts/?user=%d", saccoID, userID), &debts); err != nil {
		return nil, fmt.Errorf("fetching user debts: %w", err)
	}

	return debts, nil
}

func (s *Service) Get(ctx context.Context, saccoID, debtID int64) (Debt, error) {
	var d Debt
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/debts/%d/", saccoID, debtID), &d); err != nil {
		return Debt{}, fmt.Errorf("fetching debt details: %w", err)
	}

	return d, nil
}

type CreateParams struct {
	MembershipID int64           `json:"membership" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description" validate:"required"`
	DueDate      *api.Date       `json:"due_date,omitempty"`
}

// Create rejects a non-positive amount before any request is made; a zero
// amount would make the progress derivation meaningless.
func (s *Service) Create(ctx context.Context, saccoID int64, params CreateParams) (Debt, error) {
	if !params.Amount.IsPositive() {
		return Debt{}, ErrInvalidAmount
	}

	if err := validate.Struct(params); err != nil {
		return Debt{}, fmt.Errorf("invalid debt: %w", err)
	}

	var d Debt
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/debts/", saccoID), params, &d); err != nil {
		return Debt{}, fmt.Errorf("creating debt: %w", err)
	}

	return d, nil
}

// UpdateStatus persists a status via PATCH. Used for both derived settlement
// statuses and write-offs.
func (s *Service) UpdateStatus(ctx context.Context, saccoID, debtID int64, status Status) (Debt, error) {
	body := map[string]Status{"status": status}

	var d Debt
	if err := s.api.Patch(ctx, fmt.Sprintf("saccos/%d/debts/%d/", saccoID, debtID), body, &d); err != nil {
		return Debt{}, fmt.Errorf("updating debt status: %w", err)
	}

	return d, nil
}

func (s *Service) Payments(ctx context.Context, debtID int64) ([]Payment, error) {
	var payments []Payment
	if err := s.api.Get(ctx, fmt.Sprintf("debts/%d/payments/", debtID), &payments); err != nil {
		return nil, fmt.Errorf("fetching payments: %w", err)
	}

	return payments, nil
}

type PaymentParams struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     api.Date        `json:"payment_date"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// AddPayment posts a payment, refetches the full payment list, derives the
// status implied by the new total and, when it differs from the stored one,
// PATCHes the server so stored status stays consistent with computed
// reality. The derivation is deliberately client-side-then-persisted; the
// server never recomputes it on its own.
func (s *Service) AddPayment(ctx context.Context, d Debt, params PaymentParams) (Debt, []Payment, Summary, error) {
	if err := CanPay(d, params.Amount); err != nil {
		return d, nil, Summary{}, err
	}

	if err := s.api.Post(ctx, fmt.Sprintf("debts/%d/payments/", d.ID), params, nil); err != nil {
		return d, nil, Summary{}, fmt.Errorf("adding payment: %w", err)
	}

	payments, err := s.Payments(ctx, d.ID)
	if err != nil {
		return d, nil, Summary{}, err
	}

	summary := Summarize(d.Amount, payments)

	if derived := DeriveStatus(summary.TotalPaid, d.Amount); derived != d.Status {
		updated, err := s.UpdateStatus(ctx, d.SaccoID, d.ID, derived)
		if err != nil {
			return d, payments, summary, err
		}

		d = updated
	}

	return d, payments, summary, nil
}

// WriteOff marks the debt WRITTEN_OFF. Irreversible; no payments are
// accepted afterwards.
func (s *Service) WriteOff(ctx context.Context, d Debt, manager bool) (Debt, error) {
	if err := CanWriteOff(d, manager); err != nil {
		return d, err
	}

	return s.UpdateStatus(ctx, d.SaccoID, d.ID, StatusWrittenOff)
}
