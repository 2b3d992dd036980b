package postgres

import (
	"database/sql"
	"time"

	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/types"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const memberColumns = `id, name, email, phone, date_of_birth, category_id, status,
	balance_minor, balance_currency, notes, created_at, updated_at`

func scanMember(row rowScanner) (*member.Member, error) {
	var (
		m        member.Member
		rawID    string
		dob      sql.NullTime
		status   string
		minor    int64
		currency string
	)

	err := row.Scan(&rawID, &m.Name, &m.Email, &m.Phone, &dob, &m.CategoryID,
		&status, &minor, &currency, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.ID, err = id.ParseMemberID(rawID)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		m.DateOfBirth = dob.Time
	}
	m.Status = member.Status(status)
	m.AccountBalance = types.Money{Amount: minor, Currency: currency}
	return &m, nil
}

func memberDOB(m *member.Member) any {
	if m.DateOfBirth.IsZero() {
		return nil
	}
	return m.DateOfBirth
}

const paymentColumns = `id, member_id, member_name, amount_minor, amount_currency, date,
	method, reference, notes, receipt_number, receipt_year, receipt_seq, recorded_by,
	created_at, updated_at`

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var (
		p          payment.Payment
		rawID      string
		rawMember  string
		minor      int64
		currency   string
		method     string
		year, seq  int64
		recordedBy string
	)

	err := row.Scan(&rawID, &rawMember, &p.MemberName, &minor, &currency, &p.Date,
		&method, &p.Reference, &p.Notes, &p.ReceiptNumber, &year, &seq, &recordedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.ID, err = id.ParsePaymentID(rawID)
	if err != nil {
		return nil, err
	}
	p.MemberID, err = id.ParseMemberID(rawMember)
	if err != nil {
		return nil, err
	}
	if recordedBy != "" {
		p.RecordedBy, err = id.ParseUserID(recordedBy)
		if err != nil {
			return nil, err
		}
	}
	p.Amount = types.Money{Amount: minor, Currency: currency}
	p.Method = payment.Method(method)
	return &p, nil
}

// receiptParts derives the indexed year and sequence columns from a
// receipt number. Fallback receipts store sequence 0 and never sequence.
func receiptParts(p *payment.Payment) (int, int) {
	year, seq, err := payment.ParseReceipt(p.ReceiptNumber)
	if err != nil {
		return p.Date.Year(), 0
	}
	return year, seq
}

const feeColumns = `id, member_id, member_name, year, kind, category_id,
	category_name, amount_minor, amount_currency, applied_by, notes,
	created_at, updated_at`

func scanFee(row rowScanner) (*fee.Fee, error) {
	var (
		f         fee.Fee
		rawID     string
		rawMember string
		kind      string
		minor     int64
		currency  string
		appliedBy string
	)

	err := row.Scan(&rawID, &rawMember, &f.MemberName, &f.Year, &kind,
		&f.CategoryID, &f.CategoryName, &minor, &currency, &appliedBy,
		&f.Notes, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Kind = fee.Kind(kind)

	f.ID, err = id.ParseFeeID(rawID)
	if err != nil {
		return nil, err
	}
	f.MemberID, err = id.ParseMemberID(rawMember)
	if err != nil {
		return nil, err
	}
	if appliedBy != "" {
		f.AppliedBy, err = id.ParseUserID(appliedBy)
		if err != nil {
			return nil, err
		}
	}
	f.Amount = types.Money{Amount: minor, Currency: currency}
	return &f, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
