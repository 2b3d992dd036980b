package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/types"
)

// ==================== Member models ====================

type memberModel struct {
	grove.BaseModel `grove:"table:club_members"`

	ID              string    `grove:"id,pk"            bson:"_id"`
	Name            string    `grove:"name"             bson:"name"`
	Email           string    `grove:"email"            bson:"email,omitempty"`
	Phone           string    `grove:"phone"            bson:"phone,omitempty"`
	DateOfBirth     time.Time `grove:"date_of_birth"    bson:"date_of_birth,omitempty"`
	CategoryID      string    `grove:"category_id"      bson:"category_id"`
	Status          string    `grove:"status"           bson:"status"`
	BalanceMinor    int64     `grove:"balance_minor"    bson:"balance_minor"`
	BalanceCurrency string    `grove:"balance_currency" bson:"balance_currency"`
	Notes           string    `grove:"notes"            bson:"notes,omitempty"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
}

func toMemberModel(m *member.Member) *memberModel {
	return &memberModel{
		ID:              m.ID.String(),
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		DateOfBirth:     m.DateOfBirth,
		CategoryID:      m.CategoryID,
		Status:          string(m.Status),
		BalanceMinor:    m.AccountBalance.Amount,
		BalanceCurrency: m.AccountBalance.Currency,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromMemberModel(mm *memberModel) (*member.Member, error) {
	memberID, err := id.ParseMemberID(mm.ID)
	if err != nil {
		return nil, err
	}

	return &member.Member{
		Entity:         types.Entity{CreatedAt: mm.CreatedAt, UpdatedAt: mm.UpdatedAt},
		ID:             memberID,
		Name:           mm.Name,
		Email:          mm.Email,
		Phone:          mm.Phone,
		DateOfBirth:    mm.DateOfBirth,
		CategoryID:     mm.CategoryID,
		Status:         member.Status(mm.Status),
		AccountBalance: types.Money{Amount: mm.BalanceMinor, Currency: mm.BalanceCurrency},
		Notes:          mm.Notes,
	}, nil
}

// ==================== Payment models ====================

// paymentModel carries receipt_year and receipt_seq derived from the
// receipt number at write time, so the next-sequence query can index on
// them. Timestamp fallback receipts store seq 0 and never sequence.
type paymentModel struct {
	grove.BaseModel `grove:"table:club_payments"`

	ID             string    `grove:"id,pk"           bson:"_id"`
	MemberID       string    `grove:"member_id"       bson:"member_id"`
	MemberName     string    `grove:"member_name"     bson:"member_name"`
	AmountMinor    int64     `grove:"amount_minor"    bson:"amount_minor"`
	AmountCurrency string    `grove:"amount_currency" bson:"amount_currency"`
	Date           time.Time `grove:"date"            bson:"date"`
	Method         string    `grove:"method"          bson:"method"`
	Reference      string    `grove:"reference"       bson:"reference,omitempty"`
	Notes          string    `grove:"notes"           bson:"notes,omitempty"`
	ReceiptNumber  string    `grove:"receipt_number"  bson:"receipt_number"`
	ReceiptYear    int       `grove:"receipt_year"    bson:"receipt_year"`
	ReceiptSeq     int       `grove:"receipt_seq"     bson:"receipt_seq"`
	RecordedBy     string    `grove:"recorded_by"     bson:"recorded_by,omitempty"`
	CreatedAt      time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"      bson:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	year, seq, err := payment.ParseReceipt(p.ReceiptNumber)
	if err != nil {
		year, seq = p.Date.Year(), 0
	}

	return &paymentModel{
		ID:             p.ID.String(),
		MemberID:       p.MemberID.String(),
		MemberName:     p.MemberName,
		AmountMinor:    p.Amount.Amount,
		AmountCurrency: p.Amount.Currency,
		Date:           p.Date,
		Method:         string(p.Method),
		Reference:      p.Reference,
		Notes:          p.Notes,
		ReceiptNumber:  p.ReceiptNumber,
		ReceiptYear:    year,
		ReceiptSeq:     seq,
		RecordedBy:     p.RecordedBy.String(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromPaymentModel(pm *paymentModel) (*payment.Payment, error) {
	paymentID, err := id.ParsePaymentID(pm.ID)
	if err != nil {
		return nil, err
	}
	memberID, err := id.ParseMemberID(pm.MemberID)
	if err != nil {
		return nil, err
	}

	var recordedBy id.UserID
	if pm.RecordedBy != "" {
		recordedBy, err = id.ParseUserID(pm.RecordedBy)
		if err != nil {
			return nil, err
		}
	}

	return &payment.Payment{
		Entity:        types.Entity{CreatedAt: pm.CreatedAt, UpdatedAt: pm.UpdatedAt},
		ID:            paymentID,
		MemberID:      memberID,
		MemberName:    pm.MemberName,
		Amount:        types.Money{Amount: pm.AmountMinor, Currency: pm.AmountCurrency},
		Date:          pm.Date,
		Method:        payment.Method(pm.Method),
		Reference:     pm.Reference,
		Notes:         pm.Notes,
		ReceiptNumber: pm.ReceiptNumber,
		RecordedBy:    recordedBy,
	}, nil
}

// ==================== Fee models ====================

type feeModel struct {
	grove.BaseModel `grove:"table:club_fees"`

	ID             string    `grove:"id,pk"           bson:"_id"`
	MemberID       string    `grove:"member_id"       bson:"member_id"`
	MemberName     string    `grove:"member_name"     bson:"member_name"`
	Year           int       `grove:"year"            bson:"year"`
	Kind           string    `grove:"kind"            bson:"kind"`
	CategoryID     string    `grove:"category_id"     bson:"category_id"`
	CategoryName   string    `grove:"category_name"   bson:"category_name"`
	AmountMinor    int64     `grove:"amount_minor"    bson:"amount_minor"`
	AmountCurrency string    `grove:"amount_currency" bson:"amount_currency"`
	AppliedBy      string    `grove:"applied_by"      bson:"applied_by,omitempty"`
	Notes          string    `grove:"notes"           bson:"notes,omitempty"`
	CreatedAt      time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"      bson:"updated_at"`
}

func toFeeModel(f *fee.Fee) *feeModel {
	return &feeModel{
		ID:             f.ID.String(),
		MemberID:       f.MemberID.String(),
		MemberName:     f.MemberName,
		Year:           f.Year,
		Kind:           string(f.Kind),
		CategoryID:     f.CategoryID,
		CategoryName:   f.CategoryName,
		AmountMinor:    f.Amount.Amount,
		AmountCurrency: f.Amount.Currency,
		AppliedBy:      f.AppliedBy.String(),
		Notes:          f.Notes,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func fromFeeModel(fm *feeModel) (*fee.Fee, error) {
	feeID, err := id.ParseFeeID(fm.ID)
	if err != nil {
		return nil, err
	}
	memberID, err := id.ParseMemberID(fm.MemberID)
	if err != nil {
		return nil, err
	}

	var appliedBy id.UserID
	if fm.AppliedBy != "" {
		appliedBy, err = id.ParseUserID(fm.AppliedBy)
		if err != nil {
			return nil, err
		}
	}

	return &fee.Fee{
		Entity:       types.Entity{CreatedAt: fm.CreatedAt, UpdatedAt: fm.UpdatedAt},
		ID:           feeID,
		MemberID:     memberID,
		MemberName:   fm.MemberName,
		Year:         fm.Year,
		Kind:         fee.Kind(fm.Kind),
		CategoryID:   fm.CategoryID,
		CategoryName: fm.CategoryName,
		Amount:       types.Money{Amount: fm.AmountMinor, Currency: fm.AmountCurrency},
		AppliedBy:    appliedBy,
		Notes:        fm.Notes,
	}, nil
}
