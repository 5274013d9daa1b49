package sacco

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sacco is the tenant boundary: members, contributions, loans and debts all
// hang off one of these.
type Sacco struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedDate time.Time `json:"created_date"`
	MemberCount int       `json:"member_count,omitempty"`
}

// Statistics is the dashboard aggregate the server computes per Sacco.
type Statistics struct {
	TotalMembers       int             `json:"total_members"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	TotalLoans         decimal.Decimal `json:"total_loans"`
	ActiveLoans        int             `json:"active_loans"`
	OutstandingDebts   decimal.Decimal `json:"outstanding_debts"`
}

// Member is a membership row as listed under a Sacco.
type Member struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	RoleName   string `json:"role_name"`
	JoinedDate string `json:"joined_date,omitempty"`
}
