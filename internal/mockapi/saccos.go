package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/auth"
	"github.com/jmwangi/saccoterm/internal/contribution"
	"github.com/jmwangi/saccoterm/internal/dividend"
	"github.com/jmwangi/saccoterm/internal/loan"
	"github.com/jmwangi/saccoterm/internal/member"
	"github.com/jmwangi/saccoterm/internal/sacco"
	"github.com/jmwangi/saccoterm/internal/transaction"
)

func (s *Server) listSaccos(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []sacco.Sacco{}

	for _, m := range user.Memberships {
		if sc, ok := s.store.saccos[m.Sacco.ID]; ok && !containsSacco(out, sc.ID) {
			out = append(out, *sc)
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func containsSacco(saccos []sacco.Sacco, id int64) bool {
	for _, sc := range saccos {
		if sc.ID == id {
			return true
		}
	}

	return false
}

func (s *Server) createSacco(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var params sacco.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Name == "" {
		respondDetail(w, http.StatusBadRequest, "Name is required.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sc := &sacco.Sacco{
		ID:          s.store.id(),
		Name:        params.Name,
		Description: params.Description,
		Location:    params.Location,
		CreatedDate: time.Now(),
		MemberCount: 1,
	}
	s.store.saccos[sc.ID] = sc

	// The creator becomes the sacco's admin.
	acct := s.store.accounts[user.ID]
	acct.user.Memberships = append(acct.user.Memberships, auth.Membership{
		ID:    s.store.id(),
		Sacco: auth.SaccoRef{ID: sc.ID, Name: sc.Name},
		Role:  auth.Role{ID: 1, Name: auth.RoleAdmin},
	})

	respondJSON(w, http.StatusCreated, sc)
}

func (s *Server) searchSaccos(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []sacco.Sacco{}

	for _, sc := range s.store.saccos {
		if query == "" ||
			strings.Contains(strings.ToLower(sc.Name), query) ||
			strings.Contains(strings.ToLower(sc.Location), query) {
			out = append(out, *sc)
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) updateSacco(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	var params sacco.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Name == "" {
		respondDetail(w, http.StatusBadRequest, "Name is required.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sc, ok := s.store.saccos[saccoID]
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can update the sacco.")
		return
	}

	sc.Name = params.Name
	sc.Description = params.Description
	sc.Location = params.Location

	respondJSON(w, http.StatusOK, sc)
}

func (s *Server) getSacco(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	sc, ok := s.store.saccos[pathID(r, "saccoID")]
	if !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	respondJSON(w, http.StatusOK, sc)
}

func (s *Server) saccoStatistics(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	stats := sacco.Statistics{
		TotalContributions: decimal.Zero,
		TotalLoans:         decimal.Zero,
		OutstandingDebts:   decimal.Zero,
	}

	for _, acct := range s.store.accounts {
		if membershipIn(&acct.user, saccoID) != nil {
			stats.TotalMembers++
		}
	}

	for _, c := range s.store.contributions[saccoID] {
		stats.TotalContributions = stats.TotalContributions.Add(c.Amount)
	}

	for _, l := range s.store.loans {
		if l.SaccoID != saccoID {
			continue
		}

		stats.TotalLoans = stats.TotalLoans.Add(l.Amount)
		if l.Status == loan.StatusDisbursed {
			stats.ActiveLoans++
		}
	}

	for _, d := range s.store.debts {
		if d.SaccoID == saccoID && !d.Status.Terminal() {
			total := decimal.Zero
			for _, p := range s.store.payments[d.ID] {
				total = total.Add(p.Amount)
			}

			stats.OutstandingDebts = stats.OutstandingDebts.Add(d.Amount.Sub(total))
		}
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []sacco.Member{}

	for _, acct := range s.store.accounts {
		for _, m := range acct.user.Memberships {
			if m.Sacco.ID != saccoID {
				continue
			}

			out = append(out, sacco.Member{
				ID:        m.ID,
				UserID:    acct.user.ID,
				FirstName: acct.user.FirstName,
				LastName:  acct.user.LastName,
				Email:     acct.user.Email,
				RoleName:  m.Role.Name,
			})
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) listMemberships(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")
	userFilter := queryID(r, "user")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []auth.Membership{}

	for _, acct := range s.store.accounts {
		if userFilter != 0 && acct.user.ID != userFilter {
			continue
		}

		for _, m := range acct.user.Memberships {
			if m.Sacco.ID == saccoID {
				out = append(out, m)
			}
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) listContributions(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")
	membershipFilter := queryID(r, "membership")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []contribution.Contribution{}

	for _, c := range s.store.contributions[saccoID] {
		if membershipFilter != 0 && c.MembershipID != membershipFilter {
			continue
		}

		out = append(out, c)
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createContribution(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")

	var params contribution.CreateParams
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

	c := contribution.Contribution{
		ID:              s.store.id(),
		SaccoID:         saccoID,
		MembershipID:    params.MembershipID,
		Amount:          params.Amount,
		Type:            params.Type,
		ContributedDate: params.ContributedDate,
		RecordedDate:    time.Now(),
	}
	s.store.contributions[saccoID] = append(s.store.contributions[saccoID], c)

	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) listDividends(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := []dividend.Dividend{}

	for _, d := range s.store.dividends {
		if d.SaccoID == saccoID {
			out = append(out, *d)
		}
	}

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getDividend(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	d, ok := s.store.dividends[pathID(r, "dividendID")]
	if !ok || d.SaccoID != pathID(r, "saccoID") {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) declareDividend(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	var params dividend.DeclareParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can declare dividends.")
		return
	}

	d := &dividend.Dividend{
		ID:           s.store.id(),
		SaccoID:      saccoID,
		Year:         params.Year,
		TotalAmount:  params.TotalAmount,
		Description:  params.Description,
		DeclaredDate: time.Now(),
	}
	s.store.dividends[d.ID] = d

	respondJSON(w, http.StatusCreated, d)
}

// distributeDividend splits the declared amount evenly across the sacco's
// memberships. Production weighs by share capital; even split is enough for
// a development fixture.
func (s *Server) distributeDividend(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can distribute dividends.")
		return
	}

	d, ok := s.store.dividends[pathID(r, "dividendID")]
	if !ok || d.SaccoID != saccoID {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	if d.Distributed {
		respondDetail(w, http.StatusBadRequest, "Dividend has already been distributed.")
		return
	}

	var memberships []auth.Membership

	for _, acct := range s.store.accounts {
		if m := membershipIn(&acct.user, saccoID); m != nil {
			memberships = append(memberships, *m)
		}
	}

	if len(memberships) > 0 {
		share := d.TotalAmount.Div(decimal.NewFromInt(int64(len(memberships)))).Round(2)

		for _, m := range memberships {
			s.store.allocations[d.ID] = append(s.store.allocations[d.ID], dividend.MemberDividend{
				ID:           s.store.id(),
				DividendID:   d.ID,
				MembershipID: m.ID,
				Amount:       share,
			})
		}
	}

	d.Distributed = true

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) listMemberDividends(w http.ResponseWriter, r *http.Request) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := append([]dividend.MemberDividend{}, s.store.allocations[pathID(r, "dividendID")]...)

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) markDividendPaid(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TransactionCode string `json:"transaction_code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	dividendID := pathID(r, "dividendID")
	allocationID := pathID(r, "allocationID")

	allocations := s.store.allocations[dividendID]
	for i := range allocations {
		if allocations[i].ID == allocationID {
			allocations[i].Paid = true
			allocations[i].TransactionCode = body.TransactionCode

			respondJSON(w, http.StatusOK, allocations[i])

			return
		}
	}

	respondDetail(w, http.StatusNotFound, "Not found.")
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	out := append([]transaction.Transaction{}, s.store.transactions[saccoID]...)

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	saccoID := pathID(r, "saccoID")

	var params transaction.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	tx := transaction.Transaction{
		ID:           s.store.id(),
		SaccoID:      saccoID,
		MembershipID: params.MembershipID,
		Amount:       params.Amount,
		Type:         params.Type,
		Description:  params.Description,
		Date:         time.Now(),
	}
	s.store.transactions[saccoID] = append(s.store.transactions[saccoID], tx)

	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) listJoinRequests(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if !isManager(user, saccoID) {
		respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can review join requests.")
		return
	}

	out := append([]member.JoinRequest{}, s.store.joinRequests[saccoID]...)

	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createJoinRequest(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	saccoID := pathID(r, "saccoID")

	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.saccos[saccoID]; !ok {
		respondDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	req := member.JoinRequest{
		ID:          s.store.id(),
		SaccoID:     saccoID,
		UserID:      user.ID,
		UserName:    user.FullName(),
		Message:     body.Message,
		Status:      "PENDING",
		RequestDate: time.Now(),
	}
	s.store.joinRequests[saccoID] = append(s.store.joinRequests[saccoID], req)

	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) resolveJoinRequest(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r)
		saccoID := pathID(r, "saccoID")
		requestID := pathID(r, "requestID")

		s.store.mu.Lock()
		defer s.store.mu.Unlock()

		if !isManager(user, saccoID) {
			respondDetail(w, http.StatusForbidden, "Only an admin or treasurer can review join requests.")
			return
		}

		requests := s.store.joinRequests[saccoID]
		for i := range requests {
			if requests[i].ID != requestID {
				continue
			}

			requests[i].Status = status

			if status == "APPROVED" {
				if acct := s.store.accounts[requests[i].UserID]; acct != nil {
					sc := s.store.saccos[saccoID]
					acct.user.Memberships = append(acct.user.Memberships, auth.Membership{
						ID:    s.store.id(),
						Sacco: auth.SaccoRef{ID: saccoID, Name: sc.Name},
						Role:  auth.Role{ID: 3, Name: "MEMBER"},
					})
				}
			}

			respondJSON(w, http.StatusOK, requests[i])

			return
		}

		respondDetail(w, http.StatusNotFound, "Not found.")
	}
}
