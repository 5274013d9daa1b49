package debt

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrSettled          = errors.New("debt is already settled")
	ErrWrittenOff       = errors.New("debt has been written off")
	ErrNotWritable      = errors.New("only pending or partially paid debts can be written off")
	ErrPermissionDenied = errors.New("you don't have permission for this action")
	ErrInvalidAmount    = errors.New("amount must be a positive number")
)

// DeriveStatus computes the status implied by the payment total. The result
// is compared with the stored status and persisted when they differ; see
// Service.AddPayment.
func DeriveStatus(totalPaid, amount decimal.Decimal) Status {
	switch {
	case totalPaid.GreaterThanOrEqual(amount):
		return StatusPaid
	case totalPaid.IsPositive():
		return StatusPartiallyPaid
	default:
		return StatusPending
	}
}

// CanPay gates adding a payment: any viewer may pay, but not on a settled or
// written-off debt, and only with a positive amount.
func CanPay(d Debt, amount decimal.Decimal) error {
	switch d.Status {
	case StatusPaid:
		return ErrSettled
	case StatusWrittenOff:
		return ErrWrittenOff
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// CanWriteOff gates the write-off action: admin-or-treasurer only, and never
// from a terminal status. A paid debt cannot be written off.
func CanWriteOff(d Debt, manager bool) error {
	if !manager {
		return ErrPermissionDenied
	}

	if d.Status != StatusPending && d.Status != StatusPartiallyPaid {
		return ErrNotWritable
	}

	return nil
}

// CanView reports whether the caller may see this debt: managers of the
// Sacco and the debt's own member.
func CanView(d Debt, userID int64, manager bool) bool {
	return manager || d.MemberID == userID
}

// Summary mirrors the loan-side derivation: totals recomputed from the full
// payment list on every change.
type Summary struct {
	TotalPaid        decimal.Decimal
	RemainingBalance decimal.Decimal
	ProgressPercent  int
}

func Summarize(amount decimal.Decimal, payments []Payment) Summary {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}

	s := Summary{
		TotalPaid:        total,
		RemainingBalance: amount.Sub(total),
	}

	if amount.IsPositive() {
		pct := total.Mul(decimal.NewFromInt(100)).Div(amount).Round(0).IntPart()

		switch {
		case pct < 0:
			s.ProgressPercent = 0
		case pct > 100:
			s.ProgressPercent = 100
		default:
			s.ProgressPercent = int(pct)
		}
	}

	return s
}
