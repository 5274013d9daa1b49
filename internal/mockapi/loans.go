package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jmwangi/saccoterm/internal/api"
	"github.com/jmwangi/saccoterm/internal/loan"
	"github.com/jmwangi/saccoterm/internal/transaction"
)

func (s *Server) listLoans(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")
	membershipFilter := queryID(r, "membership")
	userFilter := queryID(r, "user")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	manager := isManager(user, saccoID)

	out := []loan.Loan{}

	for _, l := range s.store.loans {
		if l.SaccoID != saccoID {
			continue
		}

		if membershipFilter != 0 && l.MembershipID != membershipFilter {
			continue
		}

		if userFilter != 0 && l.MemberID != userFilter {
			continue
		}

		// Non-managers only ever see their own loans.
		if !manager && l.MemberID != user.ID {
			continue
		}

		out = append(out, *l)
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createLoan(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	var params loan.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if !params.Amount.IsPositive() {
		respondDetail(w, http.StatusBadRequest, "Amount must be a positive number.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	membership := membershipIn(user, saccoID)
	if membership == nil {
		respondDetail(w, http.StatusForbidden, "You are not a member of this sacco.")
		return
	}

	l := &loan.Loan{
		ID:              s.store.id(),
		SaccoID:         saccoID,
		MembershipID:    membership.ID,
		MemberID:        user.ID,
		MemberName:      user.FullName(),
		Amount:          params.Amount,
		InterestRate:    params.InterestRate,
		InterestPeriod:  params.InterestPeriod,
		Status:          loan.StatusPending,
		Purpose:         params.Purpose,
		ApplicationDate: api.Today(),
		DueDate:         params.DueDate,
	}
	s.store.loans[l.ID] = l

	respondJSON(w, http.StatusCreated, l)
}

func (s *Server) getLoan(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, ok := s.store.loans[pathID(r, "loanID")]
	if !ok || l.SaccoID != saccoID {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !loan.CanView(*l, user.ID, isManager(user, saccoID)) {
		respondDetail(w, http.StatusForbidden, "You do not have permission to view this loan.")
		return
	}

	respondJSON(w, http.StatusOK, l)
}

func (s *Server) approveLoan(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, ok := s.store.loans[pathID(r, "loanID")]
	if !ok || l.SaccoID != saccoID {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can approve loans.")
		return
	}

	if l.Status != loan.StatusPending {
		respondDetail(w, http.StatusBadRequest, "Loan is not pending approval.")
		return
	}

	now := time.Now()
	l.Status = loan.StatusApproved
	l.ApprovalDate = &now

	respondJSON(w, http.StatusOK, l)
}

// disburseLoan moves the loan to DISBURSED and records the matching sacco
// transaction, the side effect the client relies on but never constructs.
func (s *Server) disburseLoan(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, ok := s.store.loans[pathID(r, "loanID")]
	if !ok || l.SaccoID != saccoID {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can disburse loans.")
		return
	}

	if l.Status != loan.StatusApproved {
		respondDetail(w, http.StatusBadRequest, "Loan has not been approved.")
		return
	}

	now := time.Now()
	l.Status = loan.StatusDisbursed
	l.DisbursementDate = &now

	s.store.transactions[saccoID] = append(s.store.transactions[saccoID], transaction.Transaction{
		ID:           s.store.id(),
		SaccoID:      saccoID,
		MembershipID: l.MembershipID,
		MemberName:   l.MemberName,
		Amount:       l.Amount,
		Type:         transaction.TypeLoanDisbursement,
		Description:  "Loan disbursement " + uuid.NewString()[:8],
		Date:         now,
	})

	respondJSON(w, http.StatusOK, l)
}

func (s *Server) listRepayments(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, ok := s.store.loans[pathID(r, "loanID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !loan.CanView(*l, user.ID, isManager(user, l.SaccoID)) {
		respondDetail(w, http.StatusForbidden, "You do not have permission to view this loan.")
		return
	}

	out := append([]loan.Repayment{}, s.store.repayments[l.ID]...)

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) addRepayment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var params loan.RepaymentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	l, ok := s.store.loans[pathID(r, "loanID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if err := loan.CanRepay(*l, user.ID, isManager(user, l.SaccoID), params.Amount); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	repayment := loan.Repayment{
		ID:              s.store.id(),
		LoanID:          l.ID,
		Amount:          params.Amount,
		PaymentDate:     params.PaymentDate,
		TransactionCode: params.TransactionCode,
		ReferenceNumber: params.ReferenceNumber,
		Notes:           params.Notes,
		RecordedDate:    time.Now(),
	}
	s.store.repayments[l.ID] = append(s.store.repayments[l.ID], repayment)

	respondJSON(w, http.StatusCreated, repayment)
}
