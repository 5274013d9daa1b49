// Package mockapi is an in-memory stand-in for the Sacco REST API, small
// enough to run in a test and faithful enough to demo the client against.
// It mirrors the production contract where the client depends on it: role
// gates, status transition rejections and the {"detail": ...} error shape.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Server struct {
	store  *Store
	tokens tokenIssuer
}

func NewServer(secret string) *Server {
	store := NewStore()
	store.Seed()

	return &Server{
		store:  store,
		tokens: tokenIssuer{secret: []byte(secret)},
	}
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	router.Route("/api", func(r chi.Router) {
		r.Post("/auth/login/", s.login)
		r.Post("/auth/register/", s.register)
		r.Post("/auth/refresh/", s.refresh)
		r.Post("/auth/reset-password/", s.requestPasswordReset)
		r.Post("/auth/reset-password-confirm/", s.confirmPasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/users/me/", s.me)
			r.Post("/users/change_password/", s.changePassword)

			r.Route("/saccos", func(r chi.Router) {
				r.Get("/", s.listSaccos)
				r.Post("/", s.createSacco)
				r.Get("/search/", s.searchSaccos)

				r.Route("/{saccoID}", func(r chi.Router) {
					r.Get("/", s.getSacco)
					r.Put("/", s.updateSacco)
					r.Get("/statistics/", s.saccoStatistics)
					r.Get("/members/", s.listMembers)
					r.Get("/memberships/", s.listMemberships)

					r.Get("/join-requests/", s.listJoinRequests)
					r.Post("/join-requests/", s.createJoinRequest)
					r.Post("/join-requests/{requestID}/approve/", s.resolveJoinRequest("APPROVED"))
					r.Post("/join-requests/{requestID}/reject/", s.resolveJoinRequest("REJECTED"))

					r.Get("/loans/", s.listLoans)
					r.Post("/loans/", s.createLoan)
					r.Get("/loans/{loanID}/", s.getLoan)
					r.Post("/loans/{loanID}/approve/", s.approveLoan)
					r.Post("/loans/{loanID}/disburse/", s.disburseLoan)

					r.Get("/debts/", s.listDebts)
					r.Post("/debts/", s.createDebt)
					r.Get("/debts/{debtID}/", s.getDebt)
					r.Patch("/debts/{debtID}/", s.patchDebt)

					r.Get("/contributions/", s.listContributions)
					r.Post("/contributions/", s.createContribution)

					r.Get("/dividends/", s.listDividends)
					r.Post("/dividends/", s.declareDividend)
					r.Get("/dividends/{dividendID}/", s.getDividend)
					r.Post("/dividends/{dividendID}/distribute/", s.distributeDividend)

					r.Get("/transactions/", s.listTransactions)
					r.Post("/transactions/", s.createTransaction)
				})
			})

			r.Get("/loans/{loanID}/repayments/", s.listRepayments)
			r.Post("/loans/{loanID}/repayments/", s.addRepayment)

			r.Get("/debts/{debtID}/payments/", s.listPayments)
			r.Post("/debts/{debtID}/payments/", s.addPayment)

			r.Get("/dividends/{dividendID}/member-dividends/", s.listMemberDividends)
			r.Post("/dividends/{dividendID}/member-dividends/{allocationID}/mark_paid/", s.markDividendPaid)
		})
	})

	return router
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id
}

func queryID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return id
}
