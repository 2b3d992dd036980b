// Package audithook bridges Ledger lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubware/ledger"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnMemberCreated         = (*Extension)(nil)
	_ plugin.OnMemberUpdated         = (*Extension)(nil)
	_ plugin.OnPaymentRecorded       = (*Extension)(nil)
	_ plugin.OnPaymentUpdated        = (*Extension)(nil)
	_ plugin.OnPaymentDeleted        = (*Extension)(nil)
	_ plugin.OnReceiptFallback       = (*Extension)(nil)
	_ plugin.OnFeeApplied            = (*Extension)(nil)
	_ plugin.OnAnnualFeeRunCompleted = (*Extension)(nil)
	_ plugin.OnBulkPaymentsCompleted = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Member lifecycle hooks
// ──────────────────────────────────────────────────

// OnMemberCreated implements plugin.OnMemberCreated.
func (e *Extension) OnMemberCreated(ctx context.Context, m interface{}) error {
	var resourceID, categoryID string
	if mem, ok := m.(*member.Member); ok {
		resourceID = mem.ID.String()
		categoryID = mem.CategoryID
	}
	return e.record(ctx, ActionMemberCreated, SeverityInfo, OutcomeSuccess,
		ResourceMember, resourceID, CategoryMembership, nil,
		"category_id", categoryID,
	)
}

// OnMemberUpdated implements plugin.OnMemberUpdated.
func (e *Extension) OnMemberUpdated(ctx context.Context, _, newMember interface{}) error {
	var resourceID string
	if mem, ok := newMember.(*member.Member); ok {
		resourceID = mem.ID.String()
	}
	return e.record(ctx, ActionMemberUpdated, SeverityInfo, OutcomeSuccess,
		ResourceMember, resourceID, CategoryMembership, nil,
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, p interface{}) error {
	var kv []any
	var resourceID string
	if pay, ok := p.(*payment.Payment); ok {
		resourceID = pay.ID.String()
		kv = append(kv,
			"member_id", pay.MemberID.String(),
			"amount", pay.Amount.String(),
			"receipt", pay.ReceiptNumber,
		)
	}
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, OutcomeSuccess,
		ResourcePayment, resourceID, CategoryPayment, nil, kv...)
}

// OnPaymentUpdated implements plugin.OnPaymentUpdated.
func (e *Extension) OnPaymentUpdated(ctx context.Context, oldPayment, newPayment interface{}) error {
	var kv []any
	var resourceID string
	if pay, ok := newPayment.(*payment.Payment); ok {
		resourceID = pay.ID.String()
		kv = append(kv, "amount", pay.Amount.String())
	}
	if pay, ok := oldPayment.(*payment.Payment); ok {
		kv = append(kv, "previous_amount", pay.Amount.String())
	}
	return e.record(ctx, ActionPaymentUpdated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, resourceID, CategoryPayment, nil, kv...)
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
//
// Deletions reverse a member's credit, so they get warning severity to
// stand out when reviewing the trail.
func (e *Extension) OnPaymentDeleted(ctx context.Context, p interface{}) error {
	var kv []any
	var resourceID string
	if pay, ok := p.(*payment.Payment); ok {
		resourceID = pay.ID.String()
		kv = append(kv,
			"member_id", pay.MemberID.String(),
			"amount", pay.Amount.String(),
			"receipt", pay.ReceiptNumber,
		)
	}
	return e.record(ctx, ActionPaymentDeleted, SeverityWarning, OutcomeSuccess,
		ResourcePayment, resourceID, CategoryPayment, nil, kv...)
}

// OnReceiptFallback implements plugin.OnReceiptFallback.
func (e *Extension) OnReceiptFallback(ctx context.Context, year int, receipt string, cause error) error {
	return e.record(ctx, ActionReceiptFallback, SeverityError, OutcomePartial,
		ResourceReceipt, receipt, CategoryPayment, cause,
		"year", year,
	)
}

// ──────────────────────────────────────────────────
// Fee lifecycle hooks
// ──────────────────────────────────────────────────

// OnFeeApplied implements plugin.OnFeeApplied.
func (e *Extension) OnFeeApplied(ctx context.Context, f interface{}) error {
	var kv []any
	var resourceID string
	if charge, ok := f.(*fee.Fee); ok {
		resourceID = charge.ID.String()
		kv = append(kv,
			"member_id", charge.MemberID.String(),
			"year", charge.Year,
			"amount", charge.Amount.String(),
		)
	}
	return e.record(ctx, ActionFeeApplied, SeverityInfo, OutcomeSuccess,
		ResourceFee, resourceID, CategoryBilling, nil, kv...)
}

// OnAnnualFeeRunCompleted implements plugin.OnAnnualFeeRunCompleted.
//
// Per-member fees already produced their own fee.applied events; this
// records the run summary.
func (e *Extension) OnAnnualFeeRunCompleted(ctx context.Context, result interface{}, elapsed time.Duration) error {
	outcome := OutcomeSuccess
	var kv []any
	if run, ok := result.(*ledger.AnnualFeeResult); ok {
		if run.Failed > 0 {
			outcome = OutcomePartial
		}
		kv = append(kv,
			"year", run.Year,
			"successful", run.Successful,
			"skipped", run.Skipped,
			"failed", run.Failed,
			"total", run.TotalAmount.String(),
		)
	}
	kv = append(kv, "elapsed", elapsed.String())
	return e.record(ctx, ActionFeeAnnualRun, SeverityInfo, outcome,
		ResourceFee, "", CategoryBilling, nil, kv...)
}

// ──────────────────────────────────────────────────
// Bulk operation hooks
// ──────────────────────────────────────────────────

// OnBulkPaymentsCompleted implements plugin.OnBulkPaymentsCompleted.
func (e *Extension) OnBulkPaymentsCompleted(ctx context.Context, result interface{}, elapsed time.Duration) error {
	outcome := OutcomeSuccess
	var kv []any
	if run, ok := result.(*ledger.BulkPaymentResult); ok {
		if len(run.Failed) > 0 {
			outcome = OutcomePartial
		}
		kv = append(kv,
			"successful", len(run.Successful),
			"failed", len(run.Failed),
			"total", run.TotalAmount.String(),
		)
	}
	kv = append(kv, "elapsed", elapsed.String())
	return e.record(ctx, ActionBulkPayments, SeverityInfo, outcome,
		ResourcePayment, "", CategoryPayment, nil, kv...)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
