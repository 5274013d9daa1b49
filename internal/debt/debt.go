package debt

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmwangi/saccoterm/internal/api"
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
	StatusWrittenOff    Status = "WRITTEN_OFF"
)

// Terminal reports whether no further payments or transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusWrittenOff
}

// Debt is a read copy of the server's record. Write-off is a terminal status,
// never a deletion.
type Debt struct {
	ID           int64           `json:"id"`
	SaccoID      int64           `json:"sacco"`
	MembershipID int64           `json:"membership"`
	MemberID     int64           `json:"member_id"`
	MemberName   string          `json:"member_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Status       Status          `json:"status"`
	CreatedDate  time.Time       `json:"created_date"`
	DueDate      *api.Date       `json:"due_date,omitempty"`
}

// Payment is append-only against a debt.
type Payment struct {
	ID              int64           `json:"id"`
	DebtID          int64           `json:"debt"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     api.Date        `json:"payment_date"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	RecordedDate    time.Time       `json:"recorded_date"`
}
