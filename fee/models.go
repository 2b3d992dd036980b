package fee

import (
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/types"
)

// Kind distinguishes how a fee was raised. Annual fees come from the
// yearly bulk run and exist at most once per member per year; manual
// fees are one-off charges with no such limit.
type Kind string

const (
	KindManual Kind = "manual"
	KindAnnual Kind = "annual"
)

// Fee is a charge debited to a member's account: the annual
// subscription raised by the yearly run, or a manual one-off such as a
// locker rental or a correction.
type Fee struct {
	types.Entity
	ID           id.FeeID    `json:"id"`
	MemberID     id.MemberID `json:"member_id"`
	MemberName   string      `json:"member_name"`
	Year         int         `json:"year"`
	Kind         Kind        `json:"kind"`
	CategoryID   string      `json:"category_id"`
	CategoryName string      `json:"category_name"`
	Amount       types.Money `json:"amount"`
	AppliedBy    id.UserID   `json:"applied_by,omitempty"`
	Notes        string      `json:"notes,omitempty"`
}

// Input is the caller-supplied data for applying a fee to one member.
// Year defaults to the current year and CategoryID to the member's
// category when left empty.
type Input struct {
	MemberID   id.MemberID `json:"member_id"`
	Year       int         `json:"year"`
	Amount     types.Money `json:"amount"`
	CategoryID string      `json:"category_id,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

type ListOpts struct {
	MemberID id.MemberID
	Year     int
	Limit    int
	Offset   int
}
