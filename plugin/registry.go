package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                  []OnInit
	onShutdown              []OnShutdown
	onMemberCreated         []OnMemberCreated
	onMemberUpdated         []OnMemberUpdated
	onPaymentRecorded       []OnPaymentRecorded
	onPaymentUpdated        []OnPaymentUpdated
	onPaymentDeleted        []OnPaymentDeleted
	onReceiptFallback       []OnReceiptFallback
	onFeeApplied            []OnFeeApplied
	onAnnualFeeRunCompleted []OnAnnualFeeRunCompleted
	onBulkProgress          []OnBulkProgress
	onBulkPaymentsCompleted []OnBulkPaymentsCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnMemberCreated); ok {
		r.onMemberCreated = append(r.onMemberCreated, v)
	}
	if v, ok := p.(OnMemberUpdated); ok {
		r.onMemberUpdated = append(r.onMemberUpdated, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnPaymentUpdated); ok {
		r.onPaymentUpdated = append(r.onPaymentUpdated, v)
	}
	if v, ok := p.(OnPaymentDeleted); ok {
		r.onPaymentDeleted = append(r.onPaymentDeleted, v)
	}
	if v, ok := p.(OnReceiptFallback); ok {
		r.onReceiptFallback = append(r.onReceiptFallback, v)
	}
	if v, ok := p.(OnFeeApplied); ok {
		r.onFeeApplied = append(r.onFeeApplied, v)
	}
	if v, ok := p.(OnAnnualFeeRunCompleted); ok {
		r.onAnnualFeeRunCompleted = append(r.onAnnualFeeRunCompleted, v)
	}
	if v, ok := p.(OnBulkProgress); ok {
		r.onBulkProgress = append(r.onBulkProgress, v)
	}
	if v, ok := p.(OnBulkPaymentsCompleted); ok {
		r.onBulkPaymentsCompleted = append(r.onBulkPaymentsCompleted, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnMemberCreated)(nil)).Elem(), "OnMemberCreated")
	checkInterface(reflect.TypeOf((*OnMemberUpdated)(nil)).Elem(), "OnMemberUpdated")
	checkInterface(reflect.TypeOf((*OnPaymentRecorded)(nil)).Elem(), "OnPaymentRecorded")
	checkInterface(reflect.TypeOf((*OnPaymentUpdated)(nil)).Elem(), "OnPaymentUpdated")
	checkInterface(reflect.TypeOf((*OnPaymentDeleted)(nil)).Elem(), "OnPaymentDeleted")
	checkInterface(reflect.TypeOf((*OnReceiptFallback)(nil)).Elem(), "OnReceiptFallback")
	checkInterface(reflect.TypeOf((*OnFeeApplied)(nil)).Elem(), "OnFeeApplied")
	checkInterface(reflect.TypeOf((*OnAnnualFeeRunCompleted)(nil)).Elem(), "OnAnnualFeeRunCompleted")
	checkInterface(reflect.TypeOf((*OnBulkProgress)(nil)).Elem(), "OnBulkProgress")
	checkInterface(reflect.TypeOf((*OnBulkPaymentsCompleted)(nil)).Elem(), "OnBulkPaymentsCompleted")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMemberCreated emits a member created event.
func (r *Registry) EmitMemberCreated(ctx context.Context, m interface{}) {
	r.mu.RLock()
	plugins := r.onMemberCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMemberCreated(ctx, m)
		}); err != nil {
			r.logger.Warn("plugin OnMemberCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMemberUpdated emits a member updated event.
func (r *Registry) EmitMemberUpdated(ctx context.Context, oldMember, newMember interface{}) {
	r.mu.RLock()
	plugins := r.onMemberUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMemberUpdated(ctx, oldMember, newMember)
		}); err != nil {
			r.logger.Warn("plugin OnMemberUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, paymentRecord interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentRecorded(ctx, paymentRecord)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentUpdated emits a payment updated event.
func (r *Registry) EmitPaymentUpdated(ctx context.Context, oldPayment, newPayment interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentUpdated(ctx, oldPayment, newPayment)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPaymentDeleted emits a payment deleted event.
func (r *Registry) EmitPaymentDeleted(ctx context.Context, paymentRecord interface{}) {
	r.mu.RLock()
	plugins := r.onPaymentDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPaymentDeleted(ctx, paymentRecord)
		}); err != nil {
			r.logger.Warn("plugin OnPaymentDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitReceiptFallback emits a receipt fallback event.
func (r *Registry) EmitReceiptFallback(ctx context.Context, year int, receipt string, cause error) {
	r.mu.RLock()
	plugins := r.onReceiptFallback
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReceiptFallback(ctx, year, receipt, cause)
		}); err != nil {
			r.logger.Warn("plugin OnReceiptFallback failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFeeApplied emits a fee applied event.
func (r *Registry) EmitFeeApplied(ctx context.Context, f interface{}) {
	r.mu.RLock()
	plugins := r.onFeeApplied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeeApplied(ctx, f)
		}); err != nil {
			r.logger.Warn("plugin OnFeeApplied failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAnnualFeeRunCompleted emits an annual fee run completed event.
func (r *Registry) EmitAnnualFeeRunCompleted(ctx context.Context, result interface{}, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onAnnualFeeRunCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAnnualFeeRunCompleted(ctx, result, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnAnnualFeeRunCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBulkProgress emits a bulk progress event.
func (r *Registry) EmitBulkProgress(ctx context.Context, completed, total int) {
	r.mu.RLock()
	plugins := r.onBulkProgress
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBulkProgress(ctx, completed, total)
		}); err != nil {
			r.logger.Warn("plugin OnBulkProgress failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBulkPaymentsCompleted emits a bulk payments completed event.
func (r *Registry) EmitBulkPaymentsCompleted(ctx context.Context, result interface{}, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onBulkPaymentsCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBulkPaymentsCompleted(ctx, result, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnBulkPaymentsCompleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
