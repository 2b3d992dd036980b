// Package postgres implements the club ledger store on PostgreSQL using
// database/sql with the lib/pq driver.
//
// Compound operations run inside a database transaction and move the
// member balance with a relative UPDATE (balance = balance + delta), so
// concurrent writers against the same member never lose an update.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

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

// Store implements store.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL with the given DSN and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger/postgres: ping: %w", err)
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

func (s *Store) CreateMember(ctx context.Context, m *member.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO club_members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
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
		SELECT `+memberColumns+` FROM club_members WHERE id = $1`,
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
		args = append(args, string(opts.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if opts.CategoryID != "" {
		args = append(args, opts.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
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
		SET name = $2, email = $3, phone = $4, date_of_birth = $5,
			category_id = $6, status = $7, balance_minor = $8,
			balance_currency = $9, notes = $10, updated_at = $11
		WHERE id = $1`,
		m.ID.String(), m.Name, m.Email, m.Phone, memberDOB(m), m.CategoryID,
		string(m.Status), m.AccountBalance.Amount, m.AccountBalance.Currency,
		m.Notes, nowUTC())
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
		`DELETE FROM club_members WHERE id = $1`, memberID.String())
	if err != nil {
		return mapError("delete member", err)
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	year, seq := receiptParts(p)

	return s.inTransaction(ctx, "create payment", func(tx *sql.Tx) error {
		if err := adjustBalance(ctx, tx, p.MemberID.String(), p.Amount.Amount); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO club_payments (`+paymentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			p.ID.String(), p.MemberID.String(), p.MemberName,
			p.Amount.Amount, p.Amount.Currency, p.Date, string(p.Method),
			p.Reference, p.Notes, p.ReceiptNumber, year, seq,
			p.RecordedBy.String(), p.CreatedAt, p.UpdatedAt)
		return err
	})
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM club_payments WHERE id = $1`,
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
		args = append(args, opts.MemberID.String())
		where = append(where, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if opts.Method != "" {
		args = append(args, string(opts.Method))
		where = append(where, fmt.Sprintf("method = $%d", len(args)))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
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
			SET amount_minor = $2, amount_currency = $3, date = $4, method = $5,
				reference = $6, notes = $7, receipt_number = $8,
				receipt_year = $9, receipt_seq = $10, updated_at = $11
			WHERE id = $1`,
			p.ID.String(), p.Amount.Amount, p.Amount.Currency, p.Date,
			string(p.Method), p.Reference, p.Notes, p.ReceiptNumber,
			year, seq, nowUTC())
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
			DELETE FROM club_payments WHERE id = $1
			RETURNING member_id, amount_minor`,
			paymentID.String()).Scan(&memberID, &amount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ledger.ErrPaymentNotFound
			}
			return err
		}
		return adjustBalance(ctx, tx, memberID, -amount)
	})
}

func (s *Store) LatestReceiptNumber(ctx context.Context, year int) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx, `
		SELECT receipt_seq FROM club_payments
		WHERE receipt_year = $1 AND receipt_seq > 0
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

func (s *Store) CreateFee(ctx context.Context, f *fee.Fee) error {
	return s.inTransaction(ctx, "create fee", func(tx *sql.Tx) error {
		if err := adjustBalance(ctx, tx, f.MemberID.String(), -f.Amount.Amount); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO club_fees (`+feeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			f.ID.String(), f.MemberID.String(), f.MemberName, f.Year,
			string(f.Kind), f.CategoryID, f.CategoryName, f.Amount.Amount,
			f.Amount.Currency, f.AppliedBy.String(), f.Notes, f.CreatedAt,
			f.UpdatedAt)
		return err
	})
}

func (s *Store) GetFee(ctx context.Context, feeID id.FeeID) (*fee.Fee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+feeColumns+` FROM club_fees WHERE id = $1`, feeID.String())

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
		args = append(args, opts.MemberID.String())
		where = append(where, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if opts.Year != 0 {
		args = append(args, opts.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
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
		`SELECT member_id FROM club_fees WHERE year = $1`, year)
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
		SET balance_minor = balance_minor + $2, updated_at = $3
		WHERE id = $1`,
		memberID, deltaMinor, nowUTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

func limitOffset(args *[]any, limit, offset int) string {
	var clause string
	if limit > 0 {
		*args = append(*args, limit)
		clause += fmt.Sprintf(" LIMIT $%d", len(*args))
	}
	if offset > 0 {
		*args = append(*args, offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(*args))
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
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ledger.ErrAlreadyExists
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return ledger.ErrTransactionConflict
		}
	}
	return fmt.Errorf("ledger/postgres: %s: %w", op, err)
}
