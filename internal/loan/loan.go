package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/api"
)

// Status is the lifecycle state of a loan. The server owns the value; the
// client only reflects confirmed transitions.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDisbursed Status = "DISBURSED"
	StatusCompleted Status = "COMPLETED"
	StatusDefaulted Status = "DEFAULTED"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDefaulted || s == StatusRejected
}

type InterestPeriod string

const (
	InterestMonthly InterestPeriod = "MONTHLY"
	InterestYearly  InterestPeriod = "YEARLY"
)

// Loan is a read copy of the server's record. Amount is the principal.
type Loan struct {
	ID                 int64            `json:"id"`
	SaccoID            int64            `json:"sacco"`
	MembershipID       int64            `json:"membership"`
	MemberID           int64            `json:"member_id"`
	MemberName         string           `json:"member_name,omitempty"`
	Amount             decimal.Decimal  `json:"amount"`
	InterestRate       decimal.Decimal  `json:"interest_rate"`
	InterestPeriod     InterestPeriod   `json:"interest_period"`
	Status             Status           `json:"status"`
	Purpose            string           `json:"purpose,omitempty"`
	ApplicationDate    api.Date         `json:"application_date"`
	DueDate            api.Date         `json:"due_date"`
	ApprovalDate       *time.Time       `json:"approval_date,omitempty"`
	DisbursementDate   *time.Time       `json:"disbursement_date,omitempty"`
	CalculatedInterest *decimal.Decimal `json:"calculated_interest,omitempty"`
}

// Repayment is append-only against a loan; this client never edits or
// deletes one.
type Repayment struct {
	ID              int64           `json:"id"`
	LoanID          int64           `json:"loan"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     api.Date        `json:"payment_date"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	RecordedDate    time.Time       `json:"recorded_date"`
}
