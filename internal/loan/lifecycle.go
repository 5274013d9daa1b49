package loan

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotPending       = errors.New("loan is not pending approval")
	ErrNotApproved      = errors.New("loan has not been approved")
	ErrNotDisbursed     = errors.New("loan has not been disbursed")
	ErrPermissionDenied = errors.New("you don't have permission for this action")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
)

// transitions is the allowed status graph. Status never regresses.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDisbursed},
	StatusDisbursed: {StatusCompleted, StatusDefaulted},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// CanApprove gates the approve action: admin-or-treasurer only, and only
// while the loan is still pending.
func CanApprove(l Loan, manager bool) error {
	if !manager {
		return ErrPermissionDenied
	}

	if l.Status != StatusPending {
		return ErrNotPending
	}

	return nil
}

// CanDisburse gates the disburse action: admin-or-treasurer only, and only
// once the loan is approved.
func CanDisburse(l Loan, manager bool) error {
	if !manager {
		return ErrPermissionDenied
	}

	if l.Status != StatusApproved {
		return ErrNotApproved
	}

	return nil
}

// CanRepay gates adding a repayment: the loan must be disbursed, the amount
// positive, and the caller either the loan's own member or a manager.
func CanRepay(l Loan, userID int64, manager bool, amount decimal.Decimal) error {
	if !manager && l.MemberID != userID {
		return ErrPermissionDenied
	}

	if l.Status != StatusDisbursed {
		return ErrNotDisbursed
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// CanView reports whether the caller may see this loan at all: managers of
// the Sacco and the loan's own member.
func CanView(l Loan, userID int64, manager bool) bool {
	return manager || l.MemberID == userID
}

// Summary is the client-derived view of repayment progress. It is always
// recomputed from the full repayment list, never accumulated.
type Summary struct {
	TotalPaid        decimal.Decimal
	RemainingBalance decimal.Decimal
	ProgressPercent  int
}

// Summarize derives totals from the principal and the complete repayment
// list. RemainingBalance goes negative on overpayment and is reported as is;
// ProgressPercent is clamped to [0,100].
func Summarize(amount decimal.Decimal, repayments []Repayment) Summary {
	total := decimal.Zero
	for _, r := range repayments {
		total = total.Add(r.Amount)
	}

	s := Summary{
		TotalPaid:        total,
		RemainingBalance: amount.Sub(total),
	}

	if amount.IsPositive() {
		pct := total.Mul(decimal.NewFromInt(100)).Div(amount).Round(0).IntPart()
		s.ProgressPercent = clampPercent(int(pct))
	}

	return s
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}

	if p > 100 {
		return 100
	}

	return p
}
