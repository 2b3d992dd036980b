// Package sqlite implements the club ledger store on SQLite using
// database/sql with the modernc.org/sqlite driver (no cgo).
//
// Compound operations run inside a database transaction and move the
// member balance with a relative UPDATE, matching the postgres driver.
// SQLite serializes writers, so the transaction also provides the
// read-check-write isolation the contract requires.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	ledger "github.com/clubware/ledger"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	ledgerstore "github.com/clubware/ledger/store"
	"github.com/clubware/ledger/types"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if necessary) the SQLite database at path.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger/sqlite: open: %w", err)
	}

	// A single connection avoids SQLITE_BUSY between pooled writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger/sqlite: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", ledger.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Member Store ====================

const memberColumns = `id, name, email, phone, date_of_birth, category_id, status,
	balance_minor, balance_currency, notes, created_at, updated_at`

func (s *Store) CreateMember(ctx context.Context, m *member.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO club_members (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.Name, m.Email, m.Phone, memberDOB(m), m.CategoryID,
		string(m.Status), m.AccountBalance.Amount, m.AccountBalance.Currency,
		m.Notes, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return mapError("create member", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, memberID id.MemberID) (*member.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+` FROM club_members WHERE id = ?`,
		memberID.String())

	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrMemberNotFound
		}
		return nil, mapError("get member", err)
	}
	return m, nil
}

func (s *Store) ListMembers(ctx context.Context, opts member.ListOpts) ([]*member.Member, error) {
	var (
		where []string
		args  []any
	)
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	if opts.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, opts.CategoryID)
	}

	query := `SELECT ` + memberColumns + ` FROM club_members`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"
	query += limitOffset(&args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list members", err)
	}
	defer rows.Close()

	var result []*member.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, mapError("list members", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (s *Store) UpdateMember(ctx context.Context, m *member.Member) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE club_members
		SET name = ?, email = ?, phone = ?, date_of_birth = ?,
			category_id = ?, status = ?, balance_minor = ?,
			balance_currency = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		m.Name, m.Email, m.Phone, memberDOB(m), m.CategoryID,
		string(m.Status), m.AccountBalance.Amount, m.AccountBalance.Currency,
		m.Notes, nowUTC(), m.ID.String())
	if err != nil {
		return mapError("update member", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, memberID id.MemberID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM club_members WHERE id = ?`, memberID.String())
	if err != nil {
		return mapError("delete member", err)
	}
	return nil
}

// ==================== Payment Store ====================

const paymentColumns = `id, member_id, member_name, amount_minor, amount_currency, date,
	method, reference, notes, receipt_number, receipt_year, receipt_seq, recorded_by,
	created_at, updated_at`

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	year, seq := receiptParts(p)

	return s.inTransaction(ctx, "create payment", func(tx *sql.Tx) error {
		if err := adjustBalance(ctx, tx, p.MemberID.String(), p.Amount.Amount); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO club_payments (`+paymentColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID.String(), p.MemberID.String(), p.MemberName,
			p.Amount.Amount, p.Amount.Currency, p.Date, string(p.Method),
			p.Reference, p.Notes, p.ReceiptNumber, year, seq,
			p.RecordedBy.String(), p.CreatedAt, p.UpdatedAt)
		return err
	})
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM club_payments WHERE id = ?`,
		paymentID.String())

	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrPaymentNotFound
		}
		return nil, mapError("get payment", err)
	}
	return p, nil
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	var (
		where []string
		args  []any
	)
	if !opts.MemberID.IsNil() {
		where = append(where, "member_id = ?")
		args = append(args, opts.MemberID.String())
	}
	if opts.Method != "" {
		where = append(where, "method = ?")
		args = append(args, string(opts.Method))
	}
	if !opts.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, opts.From)
	}
	if !opts.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, opts.To)
	}

	query := `SELECT ` + paymentColumns + ` FROM club_payments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	query += limitOffset(&args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list payments", err)
	}
	defer rows.Close()

	var result []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapError("list payments", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment, balanceDelta types.Money) error {
	year, seq := receiptParts(p)

	return s.inTransaction(ctx, "update payment", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE club_payments
			SET amount_minor = ?, amount_currency = ?, date = ?, method = ?,
				reference = ?, notes = ?, receipt_number = ?,
				receipt_year = ?, receipt_seq = ?, updated_at = ?
			WHERE id = ?`,
			p.Amount.Amount, p.Amount.Currency, p.Date, string(p.Method),
			p.Reference, p.Notes, p.ReceiptNumber, year, seq, nowUTC(),
			p.ID.String())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ledger.ErrPaymentNotFound
		}
		if balanceDelta.IsZero() {
			return nil
		}
		return adjustBalance(ctx, tx, p.MemberID.String(), balanceDelta.Amount)
	})
}

func (s *Store) DeletePayment(ctx context.Context, paymentID id.PaymentID) error {
	return s.inTransaction(ctx, "delete payment", func(tx *sql.Tx) error {
		var (
			memberID string
			amount   int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT member_id, amount_minor FROM club_payments WHERE id = ?`,
			paymentID.String()).Scan(&memberID, &amount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ledger.ErrPaymentNotFound
			}
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM club_payments WHERE id = ?`, paymentID.String()); err != nil {
			return err
		}
		return adjustBalance(ctx, tx, memberID, -amount)
	})
}

func (s *Store) LatestReceiptNumber(ctx context.Context, year int) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx, `
		SELECT receipt_seq FROM club_payments
		WHERE receipt_year = ? AND receipt_seq > 0
		ORDER BY receipt_seq DESC
		LIMIT 1`, year).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ledger.ErrNoReceipts
		}
		return 0, mapError("latest receipt number", err)
	}
	return seq, nil
}

// ==================== Fee Store ====================

const feeColumns = `id, member_id, member_name, year, kind, category_id,
	category_name, amount_minor, amount_currency, applied_by, notes,
	created_at, updated_at`

func (s *Store) CreateFee(ctx context.Context, f *fee.Fee) error {
	return s.inTransaction(ctx, "create fee", func(tx *sql.Tx) error {
		if err := adjustBalance(ctx, tx, f.MemberID.String(), -f.Amount.Amount); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO club_fees (`+feeColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID.String(), f.MemberID.String(), f.MemberName, f.Year,
			string(f.Kind), f.CategoryID, f.CategoryName, f.Amount.Amount,
			f.Amount.Currency, f.AppliedBy.String(), f.Notes, f.CreatedAt,
			f.UpdatedAt)
		return err
	})
}

func (s *Store) GetFee(ctx context.Context, feeID id.FeeID) (*fee.Fee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+feeColumns+` FROM club_fees WHERE id = ?`, feeID.String())

	f, err := scanFee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrFeeNotFound
		}
		return nil, mapError("get fee", err)
	}
	return f, nil
}

func (s *Store) ListFees(ctx context.Context, opts fee.ListOpts) ([]*fee.Fee, error) {
	var (
		where []string
		args  []any
	)
	if !opts.MemberID.IsNil() {
		where = append(where, "member_id = ?")
		args = append(args, opts.MemberID.String())
	}
	if opts.Year != 0 {
		where = append(where, "year = ?")
		args = append(args, opts.Year)
	}

	query := `SELECT ` + feeColumns + ` FROM club_fees`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY year DESC, id"
	query += limitOffset(&args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError("list fees", err)
	}
	defer rows.Close()

	var result []*fee.Fee
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, mapError("list fees", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (s *Store) FeeYearMembers(ctx context.Context, year int) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id FROM club_fees WHERE year = ?`, year)
	if err != nil {
		return nil, mapError("fee year members", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, mapError("fee year members", err)
		}
		applied[memberID] = true
	}
	return applied, rows.Err()
}

// ==================== Helpers ====================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

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

// inTransaction runs fn in a transaction, rolling back on any error.
func (s *Store) inTransaction(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if isSentinel(err) {
			return err
		}
		return mapError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return mapError(op, err)
	}
	return nil
}

// adjustBalance applies a relative delta to a member's balance inside tx.
func adjustBalance(ctx context.Context, tx *sql.Tx, memberID string, deltaMinor int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE club_members
		SET balance_minor = balance_minor + ?, updated_at = ?
		WHERE id = ?`,
		deltaMinor, nowUTC(), memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

func memberDOB(m *member.Member) any {
	if m.DateOfBirth.IsZero() {
		return nil
	}
	return m.DateOfBirth
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

func limitOffset(args *[]any, limit, offset int) string {
	var clause string
	if limit > 0 {
		*args = append(*args, limit)
		clause = " LIMIT ?"
	}
	if offset > 0 {
		if limit <= 0 {
			// SQLite requires LIMIT before OFFSET.
			*args = append(*args, -1)
			clause = " LIMIT ?"
		}
		*args = append(*args, offset)
		clause += " OFFSET ?"
	}
	return clause
}

func isSentinel(err error) bool {
	return errors.Is(err, ledger.ErrMemberNotFound) ||
		errors.Is(err, ledger.ErrPaymentNotFound) ||
		errors.Is(err, ledger.ErrFeeNotFound) ||
		errors.Is(err, ledger.ErrAlreadyExists)
}

// mapError translates driver errors into ledger sentinels where a
// sentinel fits, wrapping everything else with the operation name.
func mapError(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ledger.ErrAlreadyExists
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "SQLITE_BUSY"):
		return ledger.ErrTransactionConflict
	}
	return fmt.Errorf("ledger/sqlite: %s: %w", op, err)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
