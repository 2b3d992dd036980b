// Package plugin provides an extensible plugin system for the club ledger.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Member lifecycle hooks
// ──────────────────────────────────────────────────

// OnMemberCreated is called when a new member is created.
type OnMemberCreated interface {
	Plugin
	OnMemberCreated(ctx context.Context, m interface{}) error
}

// OnMemberUpdated is called when a member is updated.
type OnMemberUpdated interface {
	Plugin
	OnMemberUpdated(ctx context.Context, oldMember, newMember interface{}) error
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded is called when a payment has been recorded and the
// member's balance credited.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, p interface{}) error
}

// OnPaymentUpdated is called when a payment is amended.
type OnPaymentUpdated interface {
	Plugin
	OnPaymentUpdated(ctx context.Context, oldPayment, newPayment interface{}) error
}

// OnPaymentDeleted is called when a payment is deleted and its balance
// credit reversed.
type OnPaymentDeleted interface {
	Plugin
	OnPaymentDeleted(ctx context.Context, p interface{}) error
}

// OnReceiptFallback is called when sequential receipt numbering failed
// and a timestamp-based receipt was issued instead.
type OnReceiptFallback interface {
	Plugin
	OnReceiptFallback(ctx context.Context, year int, receipt string, cause error) error
}

// ──────────────────────────────────────────────────
// Fee lifecycle hooks
// ──────────────────────────────────────────────────

// OnFeeApplied is called when an annual fee is charged to a member.
type OnFeeApplied interface {
	Plugin
	OnFeeApplied(ctx context.Context, f interface{}) error
}

// OnAnnualFeeRunCompleted is called after a club-wide annual fee run.
type OnAnnualFeeRunCompleted interface {
	Plugin
	OnAnnualFeeRunCompleted(ctx context.Context, result interface{}, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Bulk operation hooks
// ──────────────────────────────────────────────────

// OnBulkProgress is called after each item of a bulk operation.
type OnBulkProgress interface {
	Plugin
	OnBulkProgress(ctx context.Context, completed, total int) error
}

// OnBulkPaymentsCompleted is called after a bulk payment run finishes.
type OnBulkPaymentsCompleted interface {
	Plugin
	OnBulkPaymentsCompleted(ctx context.Context, result interface{}, elapsed time.Duration) error
}
