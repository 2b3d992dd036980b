// Package memory provides an in-memory Store implementation for tests
// and ephemeral deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/clubware/ledger"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/types"
)

type Store struct {
	mu sync.RWMutex

	members  map[string]*member.Member
	payments map[string]*payment.Payment
	fees     map[string]*fee.Fee

	closed bool
}

func New() *Store {
	return &Store{
		members:  make(map[string]*member.Member),
		payments: make(map[string]*payment.Payment),
		fees:     make(map[string]*fee.Fee),
	}
}

// Member methods

func (s *Store) CreateMember(_ context.Context, m *member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	if _, exists := s.members[m.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}

	cp := *m
	s.members[m.ID.String()] = &cp
	return nil
}

func (s *Store) GetMember(_ context.Context, memberID id.MemberID) (*member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.members[memberID.String()]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, ledger.ErrMemberNotFound
}

func (s *Store) ListMembers(_ context.Context, opts member.ListOpts) ([]*member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*member.Member, 0)
	for _, m := range s.members {
		if opts.Status != "" && m.Status != opts.Status {
			continue
		}
		if opts.CategoryID != "" && m.CategoryID != opts.CategoryID {
			continue
		}
		cp := *m
		result = append(result, &cp)
	}

	// Map iteration order is random; keep listings stable.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateMember(_ context.Context, m *member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[m.ID.String()]; !exists {
		return ledger.ErrMemberNotFound
	}

	cp := *m
	s.members[m.ID.String()] = &cp
	return nil
}

func (s *Store) DeleteMember(_ context.Context, memberID id.MemberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.members, memberID.String())
	return nil
}

// Payment methods
//
// The compound methods validate everything before mutating anything, so
// a failure leaves both the payment map and the member balance untouched.

func (s *Store) CreatePayment(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	if _, exists := s.payments[p.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	m, ok := s.members[p.MemberID.String()]
	if !ok {
		return ledger.ErrMemberNotFound
	}

	cp := *p
	s.payments[p.ID.String()] = &cp
	m.AccountBalance = m.AccountBalance.Add(p.Amount)
	m.Touch()
	return nil
}

func (s *Store) GetPayment(_ context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.payments[paymentID.String()]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ledger.ErrPaymentNotFound
}

func (s *Store) ListPayments(_ context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*payment.Payment, 0)
	for _, p := range s.payments {
		if !opts.MemberID.IsNil() && p.MemberID.String() != opts.MemberID.String() {
			continue
		}
		if opts.Method != "" && p.Method != opts.Method {
			continue
		}
		if !opts.From.IsZero() && p.Date.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && p.Date.After(opts.To) {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}

	// Newest first, matching the SQL drivers.
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].Date.After(result[j].Date)
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdatePayment(_ context.Context, p *payment.Payment, balanceDelta types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID.String()]; !exists {
		return ledger.ErrPaymentNotFound
	}
	m, ok := s.members[p.MemberID.String()]
	if !ok {
		return ledger.ErrMemberNotFound
	}

	cp := *p
	s.payments[p.ID.String()] = &cp
	if !balanceDelta.IsZero() {
		m.AccountBalance = m.AccountBalance.Add(balanceDelta)
		m.Touch()
	}
	return nil
}

func (s *Store) DeletePayment(_ context.Context, paymentID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.payments[paymentID.String()]
	if !exists {
		return ledger.ErrPaymentNotFound
	}
	m, ok := s.members[p.MemberID.String()]
	if !ok {
		return ledger.ErrMemberNotFound
	}

	delete(s.payments, paymentID.String())
	m.AccountBalance = m.AccountBalance.Subtract(p.Amount)
	m.Touch()
	return nil
}

func (s *Store) LatestReceiptNumber(_ context.Context, year int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ledger.ErrStoreClosed
	}

	// Scan existing receipts for the year; timestamp fallback receipts
	// do not parse and are skipped.
	max := 0
	for _, p := range s.payments {
		y, seq, err := payment.ParseReceipt(p.ReceiptNumber)
		if err != nil || y != year {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	if max == 0 {
		return 0, ledger.ErrNoReceipts
	}
	return max, nil
}

// Fee methods

func (s *Store) CreateFee(_ context.Context, f *fee.Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	if _, exists := s.fees[f.ID.String()]; exists {
		return ledger.ErrAlreadyExists
	}
	// Annual fees are unique per member per year; manual fees are not
	// limited. Mirrors the partial unique index in the SQL stores.
	if f.Kind == fee.KindAnnual {
		for _, existing := range s.fees {
			if existing.Kind != fee.KindAnnual {
				continue
			}
			if existing.MemberID.String() == f.MemberID.String() && existing.Year == f.Year {
				return ledger.ErrAlreadyExists
			}
		}
	}
	m, ok := s.members[f.MemberID.String()]
	if !ok {
		return ledger.ErrMemberNotFound
	}

	cp := *f
	s.fees[f.ID.String()] = &cp
	m.AccountBalance = m.AccountBalance.Subtract(f.Amount)
	m.Touch()
	return nil
}

func (s *Store) GetFee(_ context.Context, feeID id.FeeID) (*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.fees[feeID.String()]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, ledger.ErrFeeNotFound
}

func (s *Store) ListFees(_ context.Context, opts fee.ListOpts) ([]*fee.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*fee.Fee, 0)
	for _, f := range s.fees {
		if !opts.MemberID.IsNil() && f.MemberID.String() != opts.MemberID.String() {
			continue
		}
		if opts.Year != 0 && f.Year != opts.Year {
			continue
		}
		cp := *f
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Year == result[j].Year {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].Year > result[j].Year
	})

	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) FeeYearMembers(_ context.Context, year int) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	applied := make(map[string]bool)
	for _, f := range s.fees {
		if f.Year == year {
			applied[f.MemberID.String()] = true
		}
	}
	return applied, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// page applies offset/limit to an already-filtered result set.
func page[T any](result []T, offset, limit int) []T {
	start := offset
	if start > len(result) {
		start = len(result)
	}
	end := start + limit
	if limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end]
}
