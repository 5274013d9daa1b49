package loan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jmwangi/saccoterm/internal/api"
	"github.com/jmwangi/saccoterm/internal/loan"
)

func TestService_Create(t *testing.T) {
	type args struct {
		params loan.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *loan.MockAPI)
		wantErr   bool
	}

	valid := loan.CreateParams{
		Amount:         decimal.NewFromInt(50000),
		InterestRate:   decimal.NewFromInt(10),
		InterestPeriod: loan.InterestMonthly,
		DueDate:        api.NewDate(2027, 8, 31),
		Purpose:        "School fees",
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{params: valid},
			setupMock: func(m *loan.MockAPI) {
				m.EXPECT().
					Post(gomock.Any(), "saccos/1/loans/", valid, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, _ any, out any) error {
						l := out.(*loan.Loan)
						l.ID = 42
						l.Status = loan.StatusPending
						return nil
					})
			},
		},
		{
			name: "ZeroAmount",
			args: args{params: loan.CreateParams{
				Amount:         decimal.Zero,
				InterestPeriod: loan.InterestMonthly,
				Purpose:        "School fees",
			}},
			wantErr: true,
		},
		{
			name: "NegativeRate",
			args: args{params: loan.CreateParams{
				Amount:         decimal.NewFromInt(1000),
				InterestRate:   decimal.NewFromInt(-1),
				InterestPeriod: loan.InterestMonthly,
				Purpose:        "School fees",
			}},
			wantErr: true,
		},
		{
			name: "BadPeriod",
			args: args{params: loan.CreateParams{
				Amount:         decimal.NewFromInt(1000),
				InterestPeriod: loan.InterestPeriod("WEEKLY"),
				Purpose:        "School fees",
			}},
			wantErr: true,
		},
		{
			name: "APIError",
			args: args{params: valid},
			setupMock: func(m *loan.MockAPI) {
				m.EXPECT().
					Post(gomock.Any(), "saccos/1/loans/", valid, gomock.Any()).
					Return(errors.New("boom"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			apiMock := loan.NewMockAPI(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(apiMock)
			}

			svc := loan.NewService(apiMock)
			got, err := svc.Create(context.Background(), 1, tt.args.params)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, int64(42), got.ID)
			assert.Equal(t, loan.StatusPending, got.Status)
		})
	}
}

func TestService_Approve(t *testing.T) {
	pending := loan.Loan{ID: 5, SaccoID: 1, Status: loan.StatusPending}

	type testCase struct {
		name      string
		l         loan.Loan
		manager   bool
		setupMock func(m *loan.MockAPI)
		wantErr   error
	}

	tests := []testCase{
		{
			name:    "Success",
			l:       pending,
			manager: true,
			setupMock: func(m *loan.MockAPI) {
				m.EXPECT().
					Post(gomock.Any(), "saccos/1/loans/5/approve/", nil, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, _ any, out any) error {
						*out.(*loan.Loan) = loan.Loan{ID: 5, SaccoID: 1, Status: loan.StatusApproved}
						return nil
					})
			},
		},
		{
			name:    "NotManager",
			l:       pending,
			manager: false,
			wantErr: loan.ErrPermissionDenied,
		},
		{
			name:    "NotPending",
			l:       loan.Loan{ID: 5, SaccoID: 1, Status: loan.StatusDisbursed},
			manager: true,
			wantErr: loan.ErrNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			apiMock := loan.NewMockAPI(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(apiMock)
			}

			svc := loan.NewService(apiMock)
			got, err := svc.Approve(context.Background(), tt.l, tt.manager)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, loan.StatusApproved, got.Status)
		})
	}
}

func TestService_Disburse_GateRunsBeforeRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: a gate failure must never reach the API.
	apiMock := loan.NewMockAPI(ctrl)
	svc := loan.NewService(apiMock)

	_, err := svc.Disburse(context.Background(), loan.Loan{ID: 5, SaccoID: 1, Status: loan.StatusPending}, true)
	assert.ErrorIs(t, err, loan.ErrNotApproved)
}

func TestService_AddRepayment(t *testing.T) {
	disbursed := loan.Loan{
		ID:       5,
		SaccoID:  1,
		MemberID: 7,
		Amount:   decimal.NewFromInt(1000),
		Status:   loan.StatusDisbursed,
	}

	params := loan.RepaymentParams{
		Amount:      decimal.NewFromInt(250),
		PaymentDate: api.NewDate(2026, 8, 31),
	}

	t.Run("RefetchesAndDerives", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		apiMock := loan.NewMockAPI(ctrl)
		apiMock.EXPECT().
			Post(gomock.Any(), "loans/5/repayments/", params, nil).
			Return(nil)
		apiMock.EXPECT().
			Get(gomock.Any(), "loans/5/repayments/", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, out any) error {
				*out.(*[]loan.Repayment) = []loan.Repayment{
					{ID: 1, LoanID: 5, Amount: decimal.NewFromInt(500)},
					{ID: 2, LoanID: 5, Amount: decimal.NewFromInt(250)},
				}
				return nil
			})

		svc := loan.NewService(apiMock)
		repayments, summary, err := svc.AddRepayment(context.Background(), disbursed, 7, false, params)

		require.NoError(t, err)
		assert.Len(t, repayments, 2)
		assert.Equal(t, "750", summary.TotalPaid.String())
		assert.Equal(t, "250", summary.RemainingBalance.String())
		assert.Equal(t, 75, summary.ProgressPercent)
	})

	t.Run("StrangerBlockedLocally", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		apiMock := loan.NewMockAPI(ctrl)
		svc := loan.NewService(apiMock)

		_, _, err := svc.AddRepayment(context.Background(), disbursed, 99, false, params)
		assert.ErrorIs(t, err, loan.ErrPermissionDenied)
	})
}
