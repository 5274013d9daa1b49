package mockapi

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/contribution"
	"github.com/jmwangi/saccoterm/internal/debt"
	"github.com/jmwangi/saccoterm/internal/dividend"
	"github.com/jmwangi/saccoterm/internal/loan"
	"github.com/jmwangi/saccoterm/internal/member"
	"github.com/jmwangi/saccoterm/internal/sacco"
	"github.com/jmwangi/saccoterm/internal/transaction"
)

// account pairs a user with a dev-fixture password.
type account struct {
	user     auth.User
	password string
}

// Store is the in-memory state of the development server. It reuses the
// client's domain types so the wire format matches what the client expects.
type Store struct {
	mu sync.Mutex

	nextID int64

	accounts      map[int64]*account
	saccos        map[int64]*sacco.Sacco
	loans         map[int64]*loan.Loan
	repayments    map[int64][]loan.Repayment
	debts         map[int64]*debt.Debt
	payments      map[int64][]debt.Payment
	contributions map[int64][]contribution.Contribution
	dividends     map[int64]*dividend.Dividend
	allocations   map[int64][]dividend.MemberDividend
	transactions  map[int64][]transaction.Transaction
	joinRequests  map[int64][]member.JoinRequest
}

func NewStore() *Store {
	return &Store{
		nextID:        1,
		accounts:      map[int64]*account{},
		saccos:        map[int64]*sacco.Sacco{},
		loans:         map[int64]*loan.Loan{},
		repayments:    map[int64][]loan.Repayment{},
		debts:         map[int64]*debt.Debt{},
		payments:      map[int64][]debt.Payment{},
		contributions: map[int64][]contribution.Contribution{},
		dividends:     map[int64]*dividend.Dividend{},
		allocations:   map[int64][]dividend.MemberDividend{},
		transactions:  map[int64][]transaction.Transaction{},
		joinRequests:  map[int64][]member.JoinRequest{},
	}
}

func (s *Store) id() int64 {
	id := s.nextID
	s.nextID++

	return id
}

// Seed loads the demo fixtures: one sacco with a treasurer and a plain
// member, a pending loan and an open debt for the member.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc := &sacco.Sacco{
		ID:          s.id(),
		Name:        "Umoja Growers",
		Description: "Demo savings cooperative",
		Location:    "Nairobi",
		CreatedDate: time.Now().AddDate(-1, 0, 0),
		MemberCount: 2,
	}
	s.saccos[sc.ID] = sc

	adminRole := auth.Role{ID: 1, Name: auth.RoleAdmin}
	treasurerRole := auth.Role{ID: 2, Name: auth.RoleTreasurer}

	treasurer := auth.User{
		ID:        s.id(),
		Email:     "treasurer@example.com",
		FirstName: "Grace",
		LastName:  "Njeri",
	}
	treasurer.Memberships = []auth.Membership{
		{ID: s.id(), Sacco: auth.SaccoRef{ID: sc.ID, Name: sc.Name}, Role: adminRole},
		{ID: s.id(), Sacco: auth.SaccoRef{ID: sc.ID, Name: sc.Name}, Role: treasurerRole},
	}
	s.accounts[treasurer.ID] = &account{user: treasurer, password: "treasurer123"}

	memberUser := auth.User{
		ID:        s.id(),
		Email:     "member@example.com",
		FirstName: "Daniel",
		LastName:  "Otieno",
	}
	memberRole := auth.Role{ID: 3, Name: "MEMBER"}
	memberUser.Memberships = []auth.Membership{
		{ID: s.id(), Sacco: auth.SaccoRef{ID: sc.ID, Name: sc.Name}, Role: memberRole},
	}
	s.accounts[memberUser.ID] = &account{user: memberUser, password: "member123"}

	l := &loan.Loan{
		ID:             s.id(),
		SaccoID:        sc.ID,
		MembershipID:   memberUser.Memberships[0].ID,
		MemberID:       memberUser.ID,
		MemberName:     memberUser.FullName(),
		Amount:         decimal.NewFromInt(50000),
		InterestRate:   decimal.NewFromFloat(1.5),
		InterestPeriod: loan.InterestMonthly,
		Status:         loan.StatusPending,
		Purpose:        "School fees",
	}
	s.loans[l.ID] = l

	d := &debt.Debt{
		ID:           s.id(),
		SaccoID:      sc.ID,
		MembershipID: memberUser.Memberships[0].ID,
		MemberID:     memberUser.ID,
		MemberName:   memberUser.FullName(),
		Amount:       decimal.NewFromInt(500),
		Description:  "Missed monthly contribution",
		Status:       debt.StatusPending,
		CreatedDate:  time.Now().AddDate(0, -1, 0),
	}
	s.debts[d.ID] = d
}

func (s *Store) findAccount(email string) *account {
	for _, acct := range s.accounts {
		if strings.EqualFold(acct.user.Email, email) {
			return acct
		}
	}

	return nil
}

// isManager reports whether the user holds ADMIN or TREASURER in the sacco,
// matching the production role contract.
func isManager(u *auth.User, saccoID int64) bool {
	idx := auth.NewRoleIndex(u.Memberships)

	return idx.Has(saccoID, auth.RoleAdmin) || idx.Has(saccoID, auth.RoleTreasurer)
}

func membershipIn(u *auth.User, saccoID int64) *auth.Membership {
	for i := range u.Memberships {
		if u.Memberships[i].Sacco.ID == saccoID {
			return &u.Memberships[i]
		}
	}

	return nil
}
