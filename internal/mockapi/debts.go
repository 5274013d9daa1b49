package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmwangi/saccoterm/internal/debt"
)

func (s *Server) listDebts(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")
	membershipFilter := queryID(r, "membership")
	userFilter := queryID(r, "user")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	manager := isManager(user, saccoID)

	out := []debt.Debt{}

	for _, d := range s.store.debts {
		if d.SaccoID != saccoID {
			continue
		}

		if membershipFilter != 0 && d.MembershipID != membershipFilter {
			continue
		}

		if userFilter != 0 && d.MemberID != userFilter {
			continue
		}

		if !manager && d.MemberID != user.ID {
			continue
		}

		out = append(out, *d)
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createDebt(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	var params debt.CreateParams
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

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can record debts.")
		return
	}

	memberID := int64(0)
	memberName := ""

	for _, acct := range s.store.accounts {
		for _, m := range acct.user.Memberships {
			if m.ID == params.MembershipID {
				memberID = acct.user.ID
				memberName = acct.user.FullName()
			}
		}
	}

	if memberID == 0 {
		respondDetail(w, http.StatusBadRequest, "Unknown membership.")
		return
	}

	d := &debt.Debt{
		ID:           s.store.id(),
		SaccoID:      saccoID,
		MembershipID: params.MembershipID,
		MemberID:     memberID,
		MemberName:   memberName,
		Amount:       params.Amount,
		Description:  params.Description,
		Status:       debt.StatusPending,
		CreatedDate:  time.Now(),
		DueDate:      params.DueDate,
	}
	s.store.debts[d.ID] = d

	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) getDebt(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	d, ok := s.store.debts[pathID(r, "debtID")]
	if !ok || d.SaccoID != saccoID {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !debt.CanView(*d, user.ID, isManager(user, saccoID)) {
		respondDetail(w, http.StatusForbidden, "You do not have permission to view this debt.")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// patchDebt accepts the status updates the client issues: derived settlement
// statuses after a payment, and write-offs.
func (s *Server) patchDebt(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	var body struct {
		Status debt.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	d, ok := s.store.debts[pathID(r, "debtID")]
	if !ok || d.SaccoID != saccoID {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	switch body.Status {
	case debt.StatusWrittenOff:
		if !isManager(user, saccoID) {
			respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can write off debts.")
			return
		}

		if d.Status != debt.StatusPending && d.Status != debt.StatusPartiallyPaid {
			respondDetail(w, http.StatusBadRequest, "Only pending or partially paid debts can be written off.")
			return
		}
	case debt.StatusPending, debt.StatusPartiallyPaid, debt.StatusPaid:
		if d.Status == debt.StatusWrittenOff {
			respondDetail(w, http.StatusBadRequest, "Debt has been written off.")
			return
		}
	default:
		respondDetail(w, http.StatusBadRequest, "Unknown status.")
		return
	}

	d.Status = body.Status

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	d, ok := s.store.debts[pathID(r, "debtID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !debt.CanView(*d, user.ID, isManager(user, d.SaccoID)) {
		respondDetail(w, http.StatusForbidden, "You do not have permission to view this debt.")
		return
	}

	out := append([]debt.Payment{}, s.store.payments[d.ID]...)

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) addPayment(w http.ResponseWriter, r *http.Request) {
	var params debt.PaymentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	d, ok := s.store.debts[pathID(r, "debtID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if err := debt.CanPay(*d, params.Amount); err != nil {
		respondDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	payment := debt.Payment{
		ID:              s.store.id(),
		DebtID:          d.ID,
		Amount:          params.Amount,
		PaymentDate:     params.PaymentDate,
		TransactionCode: params.TransactionCode,
		ReferenceNumber: params.ReferenceNumber,
		Notes:           params.Notes,
		RecordedDate:    time.Now(),
	}
	s.store.payments[d.ID] = append(s.store.payments[d.ID], payment)

	respondJSON(w, http.StatusCreated, payment)
}
