package debt_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/saccoterm/internal/api"
	"github.com/jmwangi/saccoterm/internal/debt"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Get(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)
	return args.Error(0)
}

func (m *mockAPI) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}

func (m *mockAPI) Patch(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}

func TestService_AddPayment_SettlesAndPersistsStatus(t *testing.T) {
	d := debt.Debt{
		ID:       9,
		SaccoID:  1,
		MemberID: 7,
		Amount:   decimal.NewFromInt(500),
		Status:   debt.StatusPartiallyPaid,
	}

	params := debt.PaymentParams{
		Amount:      decimal.NewFromInt(300),
		PaymentDate: api.NewDate(2026, 8, 31),
	}

	apiMock := new(mockAPI)
	apiMock.On("Post", mock.Anything, "debts/9/payments/", params, nil).Return(nil)
	apiMock.On("Get", mock.Anything, "debts/9/payments/", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*[]debt.Payment)
			*out = []debt.Payment{
				{ID: 1, DebtID: 9, Amount: decimal.NewFromInt(200)},
				{ID: 2, DebtID: 9, Amount: decimal.NewFromInt(300)},
			}
		}).
		Return(nil)
	apiMock.On("Patch", mock.Anything, "saccos/1/debts/9/", map[string]debt.Status{"status": debt.StatusPaid}, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(3).(*debt.Debt)
			*out = debt.Debt{ID: 9, SaccoID: 1, MemberID: 7, Amount: d.Amount, Status: debt.StatusPaid}
		}).
		Return(nil)

	svc := debt.NewService(apiMock)
	updated, payments, summary, err := svc.AddPayment(context.Background(), d, params)

	require.NoError(t, err)
	assert.Equal(t, debt.StatusPaid, updated.Status)
	assert.Len(t, payments, 2)
	assert.Equal(t, "500", summary.TotalPaid.String())
	assert.Equal(t, "0", summary.RemainingBalance.String())
	assert.Equal(t, 100, summary.ProgressPercent)

	apiMock.AssertExpectations(t)
}

func TestService_AddPayment_NoPatchWhenStatusUnchanged(t *testing.T) {
	d := debt.Debt{
		ID:      9,
		SaccoID: 1,
		Amount:  decimal.NewFromInt(500),
		Status:  debt.StatusPartiallyPaid,
	}

	params := debt.PaymentParams{
		Amount:      decimal.NewFromInt(50),
		PaymentDate: api.NewDate(2026, 8, 31),
	}

	apiMock := new(mockAPI)
	apiMock.On("Post", mock.Anything, "debts/9/payments/", params, nil).Return(nil)
	apiMock.On("Get", mock.Anything, "debts/9/payments/", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*[]debt.Payment)
			*out = []debt.Payment{
				{ID: 1, Amount: decimal.NewFromInt(200)},
				{ID: 2, Amount: decimal.NewFromInt(50)},
			}
		}).
		Return(nil)

	svc := debt.NewService(apiMock)
	updated, _, summary, err := svc.AddPayment(context.Background(), d, params)

	require.NoError(t, err)
	assert.Equal(t, debt.StatusPartiallyPaid, updated.Status)
	assert.Equal(t, "250", summary.RemainingBalance.String())

	apiMock.AssertExpectations(t)
	apiMock.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_AddPayment_GateRunsBeforeRequest(t *testing.T) {
	apiMock := new(mockAPI)
	svc := debt.NewService(apiMock)

	settled := debt.Debt{ID: 9, SaccoID: 1, Amount: decimal.NewFromInt(500), Status: debt.StatusPaid}

	_, _, _, err := svc.AddPayment(context.Background(), settled, debt.PaymentParams{
		Amount: decimal.NewFromInt(50),
	})

	assert.ErrorIs(t, err, debt.ErrSettled)
	apiMock.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_WriteOff(t *testing.T) {
	d := debt.Debt{ID: 9, SaccoID: 1, Amount: decimal.NewFromInt(500), Status: debt.StatusPending}

	t.Run("Success", func(t *testing.T) {
		apiMock := new(mockAPI)
		apiMock.On("Patch", mock.Anything, "saccos/1/debts/9/", map[string]debt.Status{"status": debt.StatusWrittenOff}, mock.Anything).
			Run(func(args mock.Arguments) {
				out := args.Get(3).(*debt.Debt)
				*out = debt.Debt{ID: 9, SaccoID: 1, Amount: d.Amount, Status: debt.StatusWrittenOff}
			}).
			Return(nil)

		svc := debt.NewService(apiMock)
		updated, err := svc.WriteOff(context.Background(), d, true)

		require.NoError(t, err)
		assert.Equal(t, debt.StatusWrittenOff, updated.Status)
	})

	t.Run("NotManager", func(t *testing.T) {
		svc := debt.NewService(new(mockAPI))

		_, err := svc.WriteOff(context.Background(), d, false)
		assert.ErrorIs(t, err, debt.ErrPermissionDenied)
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		svc := debt.NewService(new(mockAPI))

		paid := d
		paid.Status = debt.StatusPaid

		_, err := svc.WriteOff(context.Background(), paid, true)
		assert.ErrorIs(t, err, debt.ErrNotWritable)
	})
}

func TestService_Create_RejectsNonPositiveAmount(t *testing.T) {
	svc := debt.NewService(new(mockAPI))

	_, err := svc.Create(context.Background(), 1, debt.CreateParams{
		MembershipID: 3,
		Amount:       decimal.Zero,
		Description:  "Missed monthly contribution",
	})

	assert.ErrorIs(t, err, debt.ErrInvalidAmount)
}
