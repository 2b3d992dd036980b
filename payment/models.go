package payment

import (
	"time"

	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/types"
)

type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodCheque       Method = "cheque"
	MethodCard         Method = "card"
)

// Valid reports whether the method is one of the accepted payment methods.
func (m Method) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodCheque, MethodCard:
		return true
	}
	return false
}

type Payment struct {
	types.Entity
	ID            id.PaymentID `json:"id"`
	MemberID      id.MemberID  `json:"member_id"`
	MemberName    string       `json:"member_name"`
	Amount        types.Money  `json:"amount"`
	Date          time.Time    `json:"date"`
	Method        Method       `json:"method"`
	Reference     string       `json:"reference,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	ReceiptNumber string       `json:"receipt_number"`
	RecordedBy    id.UserID    `json:"recorded_by,omitempty"`
}

// Input is the caller-supplied data for recording a payment.
type Input struct {
	MemberID  id.MemberID `json:"member_id"`
	Amount    types.Money `json:"amount"`
	Date      time.Time   `json:"date"`
	Method    Method      `json:"method"`
	Reference string      `json:"reference,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

// Update is the caller-supplied data for amending a recorded payment.
// The member a payment belongs to cannot be changed after the fact.
type Update struct {
	Amount    types.Money `json:"amount"`
	Date      time.Time   `json:"date"`
	Method    Method      `json:"method"`
	Reference string      `json:"reference,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

type ListOpts struct {
	MemberID id.MemberID
	Method   Method
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
