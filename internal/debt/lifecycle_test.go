package debt_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jmwangi/saccoterm/internal/debt"
)

func TestDeriveStatus(t *testing.T) {
	amount := decimal.NewFromInt(500)

	type testCase struct {
		name      string
		totalPaid decimal.Decimal
		want      debt.Status
	}

	tests := []testCase{
		{name: "NothingPaid", totalPaid: decimal.Zero, want: debt.StatusPending},
		{name: "PartiallyPaid", totalPaid: decimal.NewFromInt(200), want: debt.StatusPartiallyPaid},
		{name: "ExactlyPaid", totalPaid: decimal.NewFromInt(500), want: debt.StatusPaid},
		{name: "Overpaid", totalPaid: decimal.NewFromInt(600), want: debt.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, debt.DeriveStatus(tt.totalPaid, amount))
		})
	}
}

func TestCanPay(t *testing.T) {
	amount := decimal.NewFromInt(100)

	type testCase struct {
		name    string
		status  debt.Status
		amount  decimal.Decimal
		wantErr error
	}

	tests := []testCase{
		{name: "Pending", status: debt.StatusPending, amount: amount},
		{name: "PartiallyPaid", status: debt.StatusPartiallyPaid, amount: amount},
		{name: "Settled", status: debt.StatusPaid, amount: amount, wantErr: debt.ErrSettled},
		{name: "WrittenOff", status: debt.StatusWrittenOff, amount: amount, wantErr: debt.ErrWrittenOff},
		{name: "ZeroAmount", status: debt.StatusPending, amount: decimal.Zero, wantErr: debt.ErrInvalidAmount},
		{name: "NegativeAmount", status: debt.StatusPending, amount: decimal.NewFromInt(-10), wantErr: debt.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := debt.CanPay(debt.Debt{Status: tt.status}, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanWriteOff(t *testing.T) {
	type testCase struct {
		name    string
		status  debt.Status
		manager bool
		wantErr error
	}

	tests := []testCase{
		{name: "ManagerOnPending", status: debt.StatusPending, manager: true},
		{name: "ManagerOnPartiallyPaid", status: debt.StatusPartiallyPaid, manager: true},
		{name: "NotManager", status: debt.StatusPending, manager: false, wantErr: debt.ErrPermissionDenied},
		{name: "AlreadyPaid", status: debt.StatusPaid, manager: true, wantErr: debt.ErrNotWritable},
		{name: "AlreadyWrittenOff", status: debt.StatusWrittenOff, manager: true, wantErr: debt.ErrNotWritable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := debt.CanWriteOff(debt.Debt{Status: tt.status}, tt.manager)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanView(t *testing.T) {
	d := debt.Debt{MemberID: 7}

	assert.True(t, debt.CanView(d, 7, false))
	assert.True(t, debt.CanView(d, 99, true))
	assert.False(t, debt.CanView(d, 99, false))
}

func TestSummarize(t *testing.T) {
	payments := []debt.Payment{
		{Amount: decimal.NewFromInt(200)},
		{Amount: decimal.NewFromInt(150)},
	}

	got := debt.Summarize(decimal.NewFromInt(500), payments)

	assert.Equal(t, "350", got.TotalPaid.String())
	assert.Equal(t, "150", got.RemainingBalance.String())
	assert.Equal(t, 70, got.ProgressPercent)
}

func TestSummarizeOverpaid(t *testing.T) {
	payments := []debt.Payment{{Amount: decimal.NewFromInt(900)}}

	got := debt.Summarize(decimal.NewFromInt(500), payments)

	assert.Equal(t, "-400", got.RemainingBalance.String())
	assert.Equal(t, 100, got.ProgressPercent)
}
