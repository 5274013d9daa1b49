// Package transaction covers the sacco-level transaction history. Most
// records are created server-side as side effects of other operations, for
// example a loan disbursement.
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeContribution     Type = "CONTRIBUTION"
	TypeLoanDisbursement Type = "LOAN_DISBURSEMENT"
	TypeLoanRepayment    Type = "LOAN_REPAYMENT"
	TypeDebtPayment      Type = "DEBT_PAYMENT"
	TypeDividendPayout   Type = "DIVIDEND_PAYOUT"
	TypeOther            Type = "OTHER"
)

type Transaction struct {
	ID           int64           `json:"id"`
	SaccoID      int64           `json:"sacco"`
	MembershipID int64           `json:"membership,omitempty"`
	MemberName   string          `json:"member_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Type         Type            `json:"transaction_type"`
	Description  string          `json:"description,omitempty"`
	Date         time.Time       `json:"date"`
}

// API is the slice of the HTTP client the transaction service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func (s *Service) ListBySacco(ctx context.Context, saccoID int64) ([]Transaction, error) {
	var txs []Transaction
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/transactions/", saccoID), &txs); err != nil {
		return nil, fmt.Errorf("fetching transactions: %w", err)
	}

	return txs, nil
}

func (s *Service) ListByUser(ctx context.Context, saccoID, userID int64) ([]Transaction, error) {
	var txs []Transaction
	if err := s.api.Get(ctx, fmt.Sprintf("saccos/%d/transactions/?user=%d", saccoID, userID), &txs); err != nil {
		return nil, fmt.Errorf("fetching user transactions: %w", err)
	}

	return txs, nil
}

type CreateParams struct {
	MembershipID int64           `json:"membership,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Type         Type            `json:"transaction_type"`
	Description  string          `json:"description,omitempty"`
}

func (s *Service) Create(ctx context.Context, saccoID int64, params CreateParams) (Transaction, error) {
	if !params.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("amount must be a positive number")
	}

	var tx Transaction
	if err := s.api.Post(ctx, fmt.Sprintf("saccos/%d/transactions/", saccoID), params, &tx); err != nil {
		return Transaction{}, fmt.Errorf("creating transaction: %w", err)
	}

	return tx, nil
}
