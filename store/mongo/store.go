// Package mongo implements the club ledger store on MongoDB via Grove ORM.
//
// Compound operations (payment and fee writes that also move a member's
// account balance) run inside a MongoDB session transaction, with the
// balance change expressed as a $inc delta so concurrent writers never
// lose an update.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	ledger "github.com/clubware/ledger"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	ledgerstore "github.com/clubware/ledger/store"
	"github.com/clubware/ledger/types"
)

// Collection name constants.
const (
	colMembers  = "club_members"
	colPayments = "club_payments"
	colFees     = "club_fees"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all ledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("ledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Member Store ====================

func (s *Store) CreateMember(ctx context.Context, m *member.Member) error {
	mm := toMemberModel(m)
	_, err := s.mdb.NewInsert(mm).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ledger.ErrAlreadyExists
		}
		return fmt.Errorf("ledger/mongo: create member: %w", err)
	}
	return nil
}

func (s *Store) GetMember(ctx context.Context, memberID id.MemberID) (*member.Member, error) {
	var mm memberModel
	err := s.mdb.NewFind(&mm).
		Filter(bson.M{"_id": memberID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrMemberNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get member: %w", err)
	}
	return fromMemberModel(&mm)
}

func (s *Store) ListMembers(ctx context.Context, opts member.ListOpts) ([]*member.Member, error) {
	var models []memberModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.CategoryID != "" {
		filter["category_id"] = opts.CategoryID
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list members: %w", err)
	}

	result := make([]*member.Member, len(models))
	for i := range models {
		m, err := fromMemberModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) UpdateMember(ctx context.Context, m *member.Member) error {
	mm := toMemberModel(m)
	mm.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(mm).
		Filter(bson.M{"_id": mm.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: update member: %w", err)
	}
	if res.MatchedCount() == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

func (s *Store) DeleteMember(ctx context.Context, memberID id.MemberID) error {
	_, err := s.mdb.NewDelete((*memberModel)(nil)).
		Filter(bson.M{"_id": memberID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ledger/mongo: delete member: %w", err)
	}
	return nil
}

// ==================== Payment Store ====================

func (s *Store) CreatePayment(ctx context.Context, p *payment.Payment) error {
	pm := toPaymentModel(p)

	return s.inTransaction(ctx, "create payment", func(ctx context.Context) error {
		if err := s.adjustBalance(ctx, pm.MemberID, p.Amount.Amount); err != nil {
			return err
		}
		_, err := s.mdb.Collection(colPayments).InsertOne(ctx, pm)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ledger.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	var pm paymentModel
	err := s.mdb.NewFind(&pm).
		Filter(bson.M{"_id": paymentID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get payment: %w", err)
	}
	return fromPaymentModel(&pm)
}

func (s *Store) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	var models []paymentModel

	filter := bson.M{}
	if !opts.MemberID.IsNil() {
		filter["member_id"] = opts.MemberID.String()
	}
	if opts.Method != "" {
		filter["method"] = string(opts.Method)
	}
	dateFilter := bson.M{}
	if !opts.From.IsZero() {
		dateFilter["$gte"] = opts.From
	}
	if !opts.To.IsZero() {
		dateFilter["$lte"] = opts.To
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list payments: %w", err)
	}

	result := make([]*payment.Payment, len(models))
	for i := range models {
		p, err := fromPaymentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *payment.Payment, balanceDelta types.Money) error {
	pm := toPaymentModel(p)
	pm.UpdatedAt = now()

	return s.inTransaction(ctx, "update payment", func(ctx context.Context) error {
		res, err := s.mdb.Collection(colPayments).ReplaceOne(ctx, bson.M{"_id": pm.ID}, pm)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ledger.ErrPaymentNotFound
		}
		if balanceDelta.IsZero() {
			return nil
		}
		return s.adjustBalance(ctx, pm.MemberID, balanceDelta.Amount)
	})
}

func (s *Store) DeletePayment(ctx context.Context, paymentID id.PaymentID) error {
	return s.inTransaction(ctx, "delete payment", func(ctx context.Context) error {
		var pm paymentModel
		err := s.mdb.Collection(colPayments).
			FindOne(ctx, bson.M{"_id": paymentID.String()}).
			Decode(&pm)
		if err != nil {
			if isNoDocuments(err) {
				return ledger.ErrPaymentNotFound
			}
			return err
		}

		if _, err := s.mdb.Collection(colPayments).DeleteOne(ctx, bson.M{"_id": pm.ID}); err != nil {
			return err
		}
		return s.adjustBalance(ctx, pm.MemberID, -pm.AmountMinor)
	})
}

func (s *Store) LatestReceiptNumber(ctx context.Context, year int) (int, error) {
	var models []paymentModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"receipt_year": year, "receipt_seq": bson.M{"$gt": 0}}).
		Sort(bson.D{{Key: "receipt_seq", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger/mongo: latest receipt number: %w", err)
	}
	if len(models) == 0 {
		return 0, ledger.ErrNoReceipts
	}
	return models[0].ReceiptSeq, nil
}

// ==================== Fee Store ====================

func (s *Store) CreateFee(ctx context.Context, f *fee.Fee) error {
	fm := toFeeModel(f)

	return s.inTransaction(ctx, "create fee", func(ctx context.Context) error {
		if err := s.adjustBalance(ctx, fm.MemberID, -f.Amount.Amount); err != nil {
			return err
		}
		_, err := s.mdb.Collection(colFees).InsertOne(ctx, fm)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ledger.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (s *Store) GetFee(ctx context.Context, feeID id.FeeID) (*fee.Fee, error) {
	var fm feeModel
	err := s.mdb.NewFind(&fm).
		Filter(bson.M{"_id": feeID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ledger.ErrFeeNotFound
		}
		return nil, fmt.Errorf("ledger/mongo: get fee: %w", err)
	}
	return fromFeeModel(&fm)
}

func (s *Store) ListFees(ctx context.Context, opts fee.ListOpts) ([]*fee.Fee, error) {
	var models []feeModel

	filter := bson.M{}
	if !opts.MemberID.IsNil() {
		filter["member_id"] = opts.MemberID.String()
	}
	if opts.Year != 0 {
		filter["year"] = opts.Year
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "year", Value: -1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("ledger/mongo: list fees: %w", err)
	}

	result := make([]*fee.Fee, len(models))
	for i := range models {
		f, err := fromFeeModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = f
	}
	return result, nil
}

func (s *Store) FeeYearMembers(ctx context.Context, year int) (map[string]bool, error) {
	var models []feeModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{"year": year}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger/mongo: fee year members: %w", err)
	}

	applied := make(map[string]bool, len(models))
	for i := range models {
		applied[models[i].MemberID] = true
	}
	return applied, nil
}

// ==================== Helpers ====================

// inTransaction runs fn inside a MongoDB session transaction. Sentinel
// errors pass through unwrapped so callers can match on them.
func (s *Store) inTransaction(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	client := s.mdb.Collection(colMembers).Database().Client()

	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("ledger/mongo: %s: start session: %w", op, err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		if isSentinel(err) {
			return err
		}
		if isTransient(err) {
			return ledger.ErrTransactionConflict
		}
		return fmt.Errorf("ledger/mongo: %s: %w", op, err)
	}
	return nil
}

// adjustBalance applies a relative delta to a member's account balance.
func (s *Store) adjustBalance(ctx context.Context, memberID string, deltaMinor int64) error {
	res, err := s.mdb.Collection(colMembers).UpdateOne(ctx,
		bson.M{"_id": memberID},
		bson.M{
			"$inc": bson.M{"balance_minor": deltaMinor},
			"$set": bson.M{"updated_at": now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func isSentinel(err error) bool {
	return errors.Is(err, ledger.ErrMemberNotFound) ||
		errors.Is(err, ledger.ErrPaymentNotFound) ||
		errors.Is(err, ledger.ErrFeeNotFound) ||
		errors.Is(err, ledger.ErrAlreadyExists)
}

func isTransient(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

func now() time.Time {
	return time.Now().UTC()
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colMembers: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "member_id", Value: 1}, {Key: "date", Value: -1}}},
			{
				Keys:    bson.D{{Key: "receipt_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "receipt_year", Value: 1}, {Key: "receipt_seq", Value: -1}}},
		},
		colFees: {
			// Only annual fees are unique per member per year; manual
			// fees for the same member and year stay unrestricted.
			{
				Keys: bson.D{{Key: "member_id", Value: 1}, {Key: "year", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "kind", Value: "annual"}}),
			},
			{Keys: bson.D{{Key: "year", Value: 1}}},
		},
	}
}
