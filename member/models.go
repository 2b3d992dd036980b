package member

import (
	"time"

	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Member struct {
	types.Entity
	ID             id.MemberID `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email,omitempty"`
	Phone          string      `json:"phone,omitempty"`
	DateOfBirth    time.Time   `json:"date_of_birth,omitempty"`
	CategoryID     string      `json:"category_id"`
	Status         Status      `json:"status"`
	AccountBalance types.Money `json:"account_balance"`
	Notes          string      `json:"notes,omitempty"`
}

// InCredit reports whether the member's account is in credit (positive
// balance). A negative balance means the member owes the club.
func (m *Member) InCredit() bool {
	return m.AccountBalance.IsPositive()
}

// Owes returns how much the member owes, or zero when in credit.
func (m *Member) Owes() types.Money {
	if m.AccountBalance.IsNegative() {
		return m.AccountBalance.Abs()
	}
	return types.Zero(m.AccountBalance.Currency)
}

// Input is the caller-supplied data for creating or updating a member.
type Input struct {
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	DateOfBirth time.Time `json:"date_of_birth,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	Status      Status    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type ListOpts struct {
	Status     Status
	CategoryID string
	Limit      int
	Offset     int
}
