package mockapi_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/saccoterm/internal/api"
	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/debt"
	"github.com/jmwangi/saccoterm/internal/loan"
	"github.com/jmwangi/saccoterm/internal/member"
	"github.com/jmwangi/saccoterm/internal/mockapi"
	"github.com/jmwangi/saccoterm/internal/sacco"
	"github.com/jmwangi/saccoterm/internal/transaction"
)

// harness is a full client stack wired against one in-process server.
type harness struct {
	client  *api.Client
	session *auth.Session
	auth    *auth.Service
}

func newHarness(t *testing.T, srv *httptest.Server) *harness {
	t.Helper()

	store, err := auth.NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)

	client := api.NewClient(srv.URL+"/api/", 5*time.Second, store)
	session := auth.NewSession()

	return &harness{
		client:  client,
		session: session,
		auth:    auth.NewService(client, store, session),
	}
}

func (h *harness) login(t *testing.T, email, password string) {
	t.Helper()

	_, err := h.auth.Login(context.Background(), email, password)
	require.NoError(t, err)
}

func seededSacco(t *testing.T, h *harness) sacco.Sacco {
	t.Helper()

	saccos, err := sacco.NewService(h.client).ListMine(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, saccos)

	return saccos[0]
}

func TestDebtSettlementFlow(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	h := newHarness(t, srv)
	h.login(t, "treasurer@example.com", "treasurer123")

	sc := seededSacco(t, h)
	debts := debt.NewService(h.client)

	open, err := debts.ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)

	d := open[0]
	assert.Equal(t, debt.StatusPending, d.Status)
	assert.Equal(t, "500", d.Amount.String())

	// First payment leaves a balance; the derived status is persisted.
	d, payments, summary, err := debts.AddPayment(context.Background(), d, debt.PaymentParams{
		Amount:      decimal.NewFromInt(200),
		PaymentDate: api.Today(),
	})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, debt.StatusPartiallyPaid, d.Status)
	assert.Equal(t, "300", summary.RemainingBalance.String())
	assert.Equal(t, 40, summary.ProgressPercent)

	// Second payment settles it.
	d, payments, summary, err = debts.AddPayment(context.Background(), d, debt.PaymentParams{
		Amount:      decimal.NewFromInt(300),
		PaymentDate: api.Today(),
	})
	require.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.Equal(t, debt.StatusPaid, d.Status)
	assert.Equal(t, "0", summary.RemainingBalance.String())
	assert.Equal(t, 100, summary.ProgressPercent)

	// The server confirms the persisted status.
	fetched, err := debts.Get(context.Background(), sc.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusPaid, fetched.Status)

	// A settled debt cannot take payments or be written off.
	_, _, _, err = debts.AddPayment(context.Background(), d, debt.PaymentParams{
		Amount:      decimal.NewFromInt(10),
		PaymentDate: api.Today(),
	})
	assert.ErrorIs(t, err, debt.ErrSettled)

	_, err = debts.WriteOff(context.Background(), d, true)
	assert.ErrorIs(t, err, debt.ErrNotWritable)
}

func TestDebtWriteOffFlow(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	h := newHarness(t, srv)
	h.login(t, "treasurer@example.com", "treasurer123")

	sc := seededSacco(t, h)
	debts := debt.NewService(h.client)

	open, err := debts.ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, open, 1)

	d, err := debts.WriteOff(context.Background(), open[0], true)
	require.NoError(t, err)
	assert.Equal(t, debt.StatusWrittenOff, d.Status)

	_, _, _, err = debts.AddPayment(context.Background(), d, debt.PaymentParams{
		Amount:      decimal.NewFromInt(10),
		PaymentDate: api.Today(),
	})
	assert.ErrorIs(t, err, debt.ErrWrittenOff)
}

func TestLoanLifecycleFlow(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	treasurer := newHarness(t, srv)
	treasurer.login(t, "treasurer@example.com", "treasurer123")

	sc := seededSacco(t, treasurer)
	loans := loan.NewService(treasurer.client)

	pending, err := loans.ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	l := pending[0]
	assert.Equal(t, loan.StatusPending, l.Status)

	// Disbursing before approval fails the local gate.
	_, err = loans.Disburse(context.Background(), l, true)
	assert.ErrorIs(t, err, loan.ErrNotApproved)

	l, err = loans.Approve(context.Background(), l, true)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusApproved, l.Status)
	require.NotNil(t, l.ApprovalDate)

	// The server also rejects a second approval; go around the local gate.
	err = treasurer.client.Post(context.Background(),
		// approve path as the service builds it
		"saccos/"+itoa(sc.ID)+"/loans/"+itoa(l.ID)+"/approve/", nil, nil)
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Loan is not pending approval.", apiErr.Detail)

	l, err = loans.Disburse(context.Background(), l, true)
	require.NoError(t, err)
	assert.Equal(t, loan.StatusDisbursed, l.Status)
	require.NotNil(t, l.DisbursementDate)

	// Disbursement writes a sacco transaction server-side.
	txs, err := transaction.NewService(treasurer.client).ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, transaction.TypeLoanDisbursement, txs[0].Type)
	assert.Equal(t, l.Amount.String(), txs[0].Amount.String())

	// The member repays their own loan.
	member := newHarness(t, srv)
	member.login(t, "member@example.com", "member123")

	memberLoans := loan.NewService(member.client)
	repayments, summary, err := memberLoans.AddRepayment(context.Background(), l,
		member.session.UserID(), false, loan.RepaymentParams{
			Amount:      decimal.NewFromInt(12500),
			PaymentDate: api.Today(),
		})
	require.NoError(t, err)
	assert.Len(t, repayments, 1)
	assert.Equal(t, "37500", summary.RemainingBalance.String())
	assert.Equal(t, 25, summary.ProgressPercent)
}

func TestRoleEnforcement(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	member := newHarness(t, srv)
	member.login(t, "member@example.com", "member123")

	sc := seededSacco(t, member)
	loans := loan.NewService(member.client)

	mine, err := loans.ListByUser(context.Background(), sc.ID, member.session.UserID())
	require.NoError(t, err)
	require.Len(t, mine, 1)

	l := mine[0]

	// The local gate stops a plain member before any request is made.
	_, err = loans.Approve(context.Background(), l, member.session.IsManager(sc.ID))
	assert.ErrorIs(t, err, loan.ErrPermissionDenied)

	// Going around it, the server answers 403.
	err = member.client.Post(context.Background(),
		"saccos/"+itoa(sc.ID)+"/loans/"+itoa(l.ID)+"/approve/", nil, nil)
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))
}

func TestOutsiderCannotViewLoan(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	treasurer := newHarness(t, srv)
	treasurer.login(t, "treasurer@example.com", "treasurer123")

	sc := seededSacco(t, treasurer)
	seeded, err := loan.NewService(treasurer.client).ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, seeded, 1)

	outsider := newHarness(t, srv)
	_, err = outsider.auth.Register(context.Background(), auth.RegisterParams{
		Email:     "outsider@example.com",
		Password:  "outsider123",
		FirstName: "Olive",
		LastName:  "Mutua",
	})
	require.NoError(t, err)

	_, err = loan.NewService(outsider.client).Get(context.Background(), sc.ID, seeded[0].ID)
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))

	// Listing hides other members' loans instead of failing.
	visible, err := loan.NewService(outsider.client).ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestSessionResumeAfterRestart(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	store, err := auth.NewFileStore(path)
	require.NoError(t, err)

	client := api.NewClient(srv.URL+"/api/", 5*time.Second, store)
	session := auth.NewSession()
	svc := auth.NewService(client, store, session)

	_, err = svc.Login(context.Background(), "treasurer@example.com", "treasurer123")
	require.NoError(t, err)

	// A second stack over the same credentials file picks the session up.
	store2, err := auth.NewFileStore(path)
	require.NoError(t, err)

	client2 := api.NewClient(srv.URL+"/api/", 5*time.Second, store2)
	session2 := auth.NewSession()
	svc2 := auth.NewService(client2, store2, session2)

	require.True(t, svc2.Resume())
	assert.True(t, session2.LoggedIn())
	assert.Equal(t, session.UserID(), session2.UserID())

	u, err := svc2.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "treasurer@example.com", u.Email)
}

func TestSaccoSearchAndJoinFlow(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	outsider := newHarness(t, srv)
	_, err := outsider.auth.Register(context.Background(), auth.RegisterParams{
		Email:     "newcomer@example.com",
		Password:  "newcomer123",
		FirstName: "Peter",
		LastName:  "Kamau",
	})
	require.NoError(t, err)

	saccos := sacco.NewService(outsider.client)

	// A fresh account belongs to nothing yet.
	mine, err := saccos.ListMine(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mine)

	// Search is open to any authenticated user and matches on location too.
	found, err := saccos.Search(context.Background(), "nairobi")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Umoja Growers", found[0].Name)

	none, err := saccos.Search(context.Background(), "mombasa")
	require.NoError(t, err)
	assert.Empty(t, none)

	err = saccos.RequestJoin(context.Background(), found[0].ID, "Referred by Grace")
	require.NoError(t, err)

	// The treasurer sees and approves the request.
	treasurer := newHarness(t, srv)
	treasurer.login(t, "treasurer@example.com", "treasurer123")

	members := member.NewService(treasurer.client)
	requests, err := members.JoinRequests(context.Background(), found[0].ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "Peter Kamau", requests[0].UserName)
	assert.Equal(t, "Referred by Grace", requests[0].Message)

	err = members.ApproveJoinRequest(context.Background(), found[0].ID, requests[0].ID, "Welcome")
	require.NoError(t, err)

	// Approval grants a MEMBER membership; the sacco now lists as theirs.
	mine, err = saccos.ListMine(context.Background())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, found[0].ID, mine[0].ID)
}

func TestSaccoUpdateAndStatistics(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	treasurer := newHarness(t, srv)
	treasurer.login(t, "treasurer@example.com", "treasurer123")

	sc := seededSacco(t, treasurer)
	saccos := sacco.NewService(treasurer.client)

	stats, err := saccos.Statistics(context.Background(), sc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, "50000", stats.TotalLoans.String())
	assert.Equal(t, 0, stats.ActiveLoans)
	assert.Equal(t, "500", stats.OutstandingDebts.String())
	assert.True(t, stats.TotalContributions.IsZero())

	updated, err := saccos.Update(context.Background(), sc.ID, sacco.CreateParams{
		Name:     "Umoja Growers Cooperative",
		Location: "Nairobi West",
	})
	require.NoError(t, err)
	assert.Equal(t, "Umoja Growers Cooperative", updated.Name)

	fetched, err := saccos.Get(context.Background(), sc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Umoja Growers Cooperative", fetched.Name)
	assert.Equal(t, "Nairobi West", fetched.Location)

	// Plain members cannot update the sacco.
	m := newHarness(t, srv)
	m.login(t, "member@example.com", "member123")

	_, err = sacco.NewService(m.client).Update(context.Background(), sc.ID, sacco.CreateParams{Name: "Hijacked"})
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))
}

func TestPasswordManagement(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	h := newHarness(t, srv)
	h.login(t, "treasurer@example.com", "treasurer123")

	// A wrong current password is rejected.
	err := h.auth.ChangePassword(context.Background(), "wrong", "replacement1")
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Current password is incorrect.", apiErr.Detail)

	err = h.auth.ChangePassword(context.Background(), "treasurer123", "replacement1")
	require.NoError(t, err)

	// The old password no longer signs in; the new one does.
	fresh := newHarness(t, srv)
	_, err = fresh.auth.Login(context.Background(), "treasurer@example.com", "treasurer123")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))

	fresh.login(t, "treasurer@example.com", "replacement1")

	// Reset requests never reveal whether an email exists.
	require.NoError(t, fresh.auth.RequestPasswordReset(context.Background(), "nobody@example.com"))
	require.NoError(t, fresh.auth.RequestPasswordReset(context.Background(), "treasurer@example.com"))

	require.NoError(t, fresh.auth.ConfirmPasswordReset(context.Background(), "reset-token", "replacement2"))

	err = fresh.auth.ConfirmPasswordReset(context.Background(), "reset-token", "short")
	require.Error(t, err)
	assert.True(t, api.IsBadRequest(err))
}

func TestListByMembership(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	treasurer := newHarness(t, srv)
	treasurer.login(t, "treasurer@example.com", "treasurer123")

	m := newHarness(t, srv)
	m.login(t, "member@example.com", "member123")

	sc := seededSacco(t, treasurer)

	membership, err := member.NewService(treasurer.client).ForUser(context.Background(), sc.ID, m.session.UserID())
	require.NoError(t, err)
	require.NotNil(t, membership)

	loans, err := loan.NewService(treasurer.client).ListByMember(context.Background(), sc.ID, membership.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, membership.ID, loans[0].MembershipID)

	debts, err := debt.NewService(treasurer.client).ListByMember(context.Background(), sc.ID, membership.ID)
	require.NoError(t, err)
	require.Len(t, debts, 1)
	assert.Equal(t, membership.ID, debts[0].MembershipID)

	// The treasurer's own membership carries neither.
	own, err := member.NewService(treasurer.client).ForUser(context.Background(), sc.ID, treasurer.session.UserID())
	require.NoError(t, err)
	require.NotNil(t, own)

	loans, err = loan.NewService(treasurer.client).ListByMember(context.Background(), sc.ID, own.ID)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestOutsiderCannotListRepaymentsOrPayments(t *testing.T) {
	srv := httptest.NewServer(mockapi.NewServer("test-secret").Router())
	defer srv.Close()

	treasurer := newHarness(t, srv)
	treasurer.login(t, "treasurer@example.com", "treasurer123")

	sc := seededSacco(t, treasurer)

	seededLoans, err := loan.NewService(treasurer.client).ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, seededLoans, 1)

	seededDebts, err := debt.NewService(treasurer.client).ListBySacco(context.Background(), sc.ID)
	require.NoError(t, err)
	require.Len(t, seededDebts, 1)

	outsider := newHarness(t, srv)
	_, err = outsider.auth.Register(context.Background(), auth.RegisterParams{
		Email:     "snoop@example.com",
		Password:  "snooper123",
		FirstName: "Sam",
		LastName:  "Odhiambo",
	})
	require.NoError(t, err)

	_, err = loan.NewService(outsider.client).Repayments(context.Background(), seededLoans[0].ID)
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))

	_, err = debt.NewService(outsider.client).Payments(context.Background(), seededDebts[0].ID)
	require.Error(t, err)
	assert.True(t, api.IsForbidden(err))

	// The debtor themselves still sees their own payment history.
	m := newHarness(t, srv)
	m.login(t, "member@example.com", "member123")

	payments, err := debt.NewService(m.client).Payments(context.Background(), seededDebts[0].ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
