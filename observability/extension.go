// Package observability provides a metrics extension for Ledger that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/clubware/ledger"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnMemberCreated         = (*MetricsExtension)(nil)
	_ plugin.OnMemberUpdated         = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentUpdated        = (*MetricsExtension)(nil)
	_ plugin.OnPaymentDeleted        = (*MetricsExtension)(nil)
	_ plugin.OnReceiptFallback       = (*MetricsExtension)(nil)
	_ plugin.OnFeeApplied            = (*MetricsExtension)(nil)
	_ plugin.OnAnnualFeeRunCompleted = (*MetricsExtension)(nil)
	_ plugin.OnBulkPaymentsCompleted = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Ledger plugin to automatically track club metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Member metrics
	MemberCreated Counter
	MemberUpdated Counter

	// Payment metrics
	PaymentRecorded Counter
	PaymentUpdated  Counter
	PaymentDeleted  Counter
	PaymentAmount   Histogram

	// Receipt metrics
	ReceiptFallbacks Counter

	// Fee metrics
	FeeApplied        Counter
	FeeAmount         Histogram
	AnnualRunDuration Histogram

	// Bulk metrics
	BulkRunSize     Histogram
	BulkRunDuration Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Member metrics
		MemberCreated: factory.Counter("ledger.member.created"),
		MemberUpdated: factory.Counter("ledger.member.updated"),

		// Payment metrics
		PaymentRecorded: factory.Counter("ledger.payment.recorded"),
		PaymentUpdated:  factory.Counter("ledger.payment.updated"),
		PaymentDeleted:  factory.Counter("ledger.payment.deleted"),
		PaymentAmount:   factory.Histogram("ledger.payment.amount_minor"),

		// Receipt metrics
		ReceiptFallbacks: factory.Counter("ledger.receipt.fallbacks"),

		// Fee metrics
		FeeApplied:        factory.Counter("ledger.fee.applied"),
		FeeAmount:         factory.Histogram("ledger.fee.amount_minor"),
		AnnualRunDuration: factory.Histogram("ledger.fee.annual_run.duration_ms"),

		// Bulk metrics
		BulkRunSize:     factory.Histogram("ledger.bulk.payments.size"),
		BulkRunDuration: factory.Histogram("ledger.bulk.payments.duration_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("ledger.store.errors"),
		PluginErrors: factory.Counter("ledger.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Member lifecycle hooks
// ──────────────────────────────────────────────────

// OnMemberCreated implements plugin.OnMemberCreated.
func (m *MetricsExtension) OnMemberCreated(_ context.Context, _ interface{}) error {
	m.MemberCreated.Inc()
	return nil
}

// OnMemberUpdated implements plugin.OnMemberUpdated.
func (m *MetricsExtension) OnMemberUpdated(_ context.Context, _, _ interface{}) error {
	m.MemberUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, p interface{}) error {
	m.PaymentRecorded.Inc()
	if pay, ok := p.(*payment.Payment); ok {
		m.PaymentAmount.Observe(float64(pay.Amount.Amount))
	}
	return nil
}

// OnPaymentUpdated implements plugin.OnPaymentUpdated.
func (m *MetricsExtension) OnPaymentUpdated(_ context.Context, _, _ interface{}) error {
	m.PaymentUpdated.Inc()
	return nil
}

// OnPaymentDeleted implements plugin.OnPaymentDeleted.
func (m *MetricsExtension) OnPaymentDeleted(_ context.Context, _ interface{}) error {
	m.PaymentDeleted.Inc()
	return nil
}

// OnReceiptFallback implements plugin.OnReceiptFallback.
func (m *MetricsExtension) OnReceiptFallback(_ context.Context, _ int, _ string, _ error) error {
	m.ReceiptFallbacks.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Fee lifecycle hooks
// ──────────────────────────────────────────────────

// OnFeeApplied implements plugin.OnFeeApplied.
func (m *MetricsExtension) OnFeeApplied(_ context.Context, f interface{}) error {
	m.FeeApplied.Inc()
	if charge, ok := f.(*fee.Fee); ok {
		m.FeeAmount.Observe(float64(charge.Amount.Amount))
	}
	return nil
}

// OnAnnualFeeRunCompleted implements plugin.OnAnnualFeeRunCompleted.
func (m *MetricsExtension) OnAnnualFeeRunCompleted(_ context.Context, _ interface{}, elapsed time.Duration) error {
	m.AnnualRunDuration.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Bulk operation hooks
// ──────────────────────────────────────────────────

// OnBulkPaymentsCompleted implements plugin.OnBulkPaymentsCompleted.
func (m *MetricsExtension) OnBulkPaymentsCompleted(_ context.Context, result interface{}, elapsed time.Duration) error {
	m.BulkRunDuration.Observe(float64(elapsed.Milliseconds()))
	if run, ok := result.(*ledger.BulkPaymentResult); ok {
		m.BulkRunSize.Observe(float64(len(run.Successful) + len(run.Failed)))
	}
	return nil
}
