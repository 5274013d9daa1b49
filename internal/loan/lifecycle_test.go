package loan_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jmwangi/saccoterm/internal/loan"
)

func TestCanTransition(t *testing.T) {
	type testCase struct {
		name string
		from loan.Status
		to   loan.Status
		want bool
	}

	tests := []testCase{
		{name: "PendingToApproved", from: loan.StatusPending, to: loan.StatusApproved, want: true},
		{name: "PendingToRejected", from: loan.StatusPending, to: loan.StatusRejected, want: true},
		{name: "PendingToDisbursed", from: loan.StatusPending, to: loan.StatusDisbursed, want: false},
		{name: "ApprovedToDisbursed", from: loan.StatusApproved, to: loan.StatusDisbursed, want: true},
		{name: "ApprovedToPending", from: loan.StatusApproved, to: loan.StatusPending, want: false},
		{name: "DisbursedToCompleted", from: loan.StatusDisbursed, to: loan.StatusCompleted, want: true},
		{name: "DisbursedToDefaulted", from: loan.StatusDisbursed, to: loan.StatusDefaulted, want: true},
		{name: "CompletedIsTerminal", from: loan.StatusCompleted, to: loan.StatusDefaulted, want: false},
		{name: "RejectedIsTerminal", from: loan.StatusRejected, to: loan.StatusApproved, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, loan.CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanApprove(t *testing.T) {
	type testCase struct {
		name    string
		status  loan.Status
		manager bool
		wantErr error
	}

	tests := []testCase{
		{name: "ManagerOnPending", status: loan.StatusPending, manager: true, wantErr: nil},
		{name: "NotManager", status: loan.StatusPending, manager: false, wantErr: loan.ErrPermissionDenied},
		{name: "AlreadyApproved", status: loan.StatusApproved, manager: true, wantErr: loan.ErrNotPending},
		{name: "AlreadyDisbursed", status: loan.StatusDisbursed, manager: true, wantErr: loan.ErrNotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loan.CanApprove(loan.Loan{Status: tt.status}, tt.manager)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanDisburse(t *testing.T) {
	type testCase struct {
		name    string
		status  loan.Status
		manager bool
		wantErr error
	}

	tests := []testCase{
		{name: "ManagerOnApproved", status: loan.StatusApproved, manager: true, wantErr: nil},
		{name: "NotManager", status: loan.StatusApproved, manager: false, wantErr: loan.ErrPermissionDenied},
		{name: "StillPending", status: loan.StatusPending, manager: true, wantErr: loan.ErrNotApproved},
		{name: "AlreadyDisbursed", status: loan.StatusDisbursed, manager: true, wantErr: loan.ErrNotApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loan.CanDisburse(loan.Loan{Status: tt.status}, tt.manager)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanRepay(t *testing.T) {
	disbursed := loan.Loan{Status: loan.StatusDisbursed, MemberID: 7}

	type testCase struct {
		name    string
		l       loan.Loan
		userID  int64
		manager bool
		amount  decimal.Decimal
		wantErr error
	}

	tests := []testCase{
		{name: "OwnMember", l: disbursed, userID: 7, amount: decimal.NewFromInt(100)},
		{name: "Manager", l: disbursed, userID: 99, manager: true, amount: decimal.NewFromInt(100)},
		{name: "Stranger", l: disbursed, userID: 99, amount: decimal.NewFromInt(100), wantErr: loan.ErrPermissionDenied},
		{name: "NotDisbursed", l: loan.Loan{Status: loan.StatusApproved, MemberID: 7}, userID: 7, amount: decimal.NewFromInt(100), wantErr: loan.ErrNotDisbursed},
		{name: "ZeroAmount", l: disbursed, userID: 7, amount: decimal.Zero, wantErr: loan.ErrInvalidAmount},
		{name: "NegativeAmount", l: disbursed, userID: 7, amount: decimal.NewFromInt(-5), wantErr: loan.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loan.CanRepay(tt.l, tt.userID, tt.manager, tt.amount)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanView(t *testing.T) {
	l := loan.Loan{MemberID: 7}

	assert.True(t, loan.CanView(l, 7, false))
	assert.True(t, loan.CanView(l, 99, true))
	assert.False(t, loan.CanView(l, 99, false))
}

func TestSummarize(t *testing.T) {
	repayments := func(amounts ...int64) []loan.Repayment {
		out := make([]loan.Repayment, 0, len(amounts))
		for _, a := range amounts {
			out = append(out, loan.Repayment{Amount: decimal.NewFromInt(a)})
		}
		return out
	}

	type testCase struct {
		name          string
		amount        decimal.Decimal
		repayments    []loan.Repayment
		wantPaid      string
		wantRemaining string
		wantPercent   int
	}

	tests := []testCase{
		{
			name:          "NoRepayments",
			amount:        decimal.NewFromInt(50000),
			wantPaid:      "0",
			wantRemaining: "50000",
			wantPercent:   0,
		},
		{
			name:          "Partial",
			amount:        decimal.NewFromInt(50000),
			repayments:    repayments(10000, 15000),
			wantPaid:      "25000",
			wantRemaining: "25000",
			wantPercent:   50,
		},
		{
			name:          "ExactlySettled",
			amount:        decimal.NewFromInt(500),
			repayments:    repayments(200, 300),
			wantPaid:      "500",
			wantRemaining: "0",
			wantPercent:   100,
		},
		{
			name:          "OverpaidGoesNegativeButClamps",
			amount:        decimal.NewFromInt(500),
			repayments:    repayments(400, 400),
			wantPaid:      "800",
			wantRemaining: "-300",
			wantPercent:   100,
		},
		{
			name:          "ZeroPrincipal",
			amount:        decimal.Zero,
			repayments:    repayments(100),
			wantPaid:      "100",
			wantRemaining: "-100",
			wantPercent:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := loan.Summarize(tt.amount, tt.repayments)

			assert.Equal(t, tt.wantPaid, got.TotalPaid.String())
			assert.Equal(t, tt.wantRemaining, got.RemainingBalance.String())
			assert.Equal(t, tt.wantPercent, got.ProgressPercent)
		})
	}
}

func TestSummarizeAlwaysRecomputes(t *testing.T) {
	amount := decimal.NewFromInt(1000)

	first := loan.Summarize(amount, []loan.Repayment{{Amount: decimal.NewFromInt(250)}})
	assert.Equal(t, "750", first.RemainingBalance.String())

	// The second derivation sees the whole list again, not a delta.
	second := loan.Summarize(amount, []loan.Repayment{
		{Amount: decimal.NewFromInt(250)},
		{Amount: decimal.NewFromInt(250)},
	})
	assert.Equal(t, "500", second.TotalPaid.String())
	assert.Equal(t, 50, second.ProgressPercent)
}
