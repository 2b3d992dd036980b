package ledger

import (
	"context"
	"time"

	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/types"
)

// ==================== Bulk Payments ====================

// Progress reports how far through a bulk operation the ledger is.
// Percent is 0-100 and reaches 100 only after the final item.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// BulkOption configures a bulk operation.
type BulkOption func(*bulkOptions)

type bulkOptions struct {
	progress chan<- Progress
}

// WithProgress streams per-item progress to ch. Sends never block: if
// the receiver falls behind, intermediate updates are dropped. The
// channel is not closed by the ledger.
func WithProgress(ch chan<- Progress) BulkOption {
	return func(o *bulkOptions) {
		o.progress = ch
	}
}

// BulkPaymentResult is the outcome of a bulk payment run. TotalAmount
// sums the successful payments only.
type BulkPaymentResult struct {
	Successful  []*payment.Payment `json:"successful"`
	Failed      []BatchItemError   `json:"failed"`
	TotalAmount types.Money        `json:"total_amount"`
}

// RecordBulkPayments records a batch of payments sequentially, one
// transaction per item. A failed item is reported in the result with
// its batch index and does not stop the run, so a bad row in an import
// costs only that row. Cancelling ctx does stop the run: the loop ends
// after the in-flight item and the partial result accumulated so far is
// returned together with ctx.Err().
func (l *Ledger) RecordBulkPayments(ctx context.Context, inputs []payment.Input, recordedBy id.UserID, opts ...BulkOption) (*BulkPaymentResult, error) {
	var options bulkOptions
	for _, opt := range opts {
		opt(&options)
	}
	started := time.Now()
	total := len(inputs)

	result := &BulkPaymentResult{
		Successful:  make([]*payment.Payment, 0, total),
		Failed:      nil,
		TotalAmount: types.Zero(l.categories.Currency()),
	}
	for i, in := range inputs {
		p, err := l.RecordPayment(ctx, in, recordedBy)
		if err != nil {
			result.Failed = append(result.Failed, BatchItemError{
				Index:    i,
				MemberID: in.MemberID,
				Err:      err,
			})
		} else {
			result.Successful = append(result.Successful, p)
			result.TotalAmount = result.TotalAmount.Add(p.Amount)
		}

		completed := i + 1
		l.notifyProgress(options.progress, completed, total)
		l.plugins.EmitBulkProgress(ctx, completed, total)

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	l.logger.Info("bulk payments completed",
		"total", total,
		"successful", len(result.Successful),
		"failed", len(result.Failed),
		"amount", result.TotalAmount,
	)
	l.plugins.EmitBulkPaymentsCompleted(ctx, result, time.Since(started))
	return result, nil
}

func (l *Ledger) notifyProgress(ch chan<- Progress, completed, total int) {
	if ch == nil {
		return
	}
	p := Progress{
		Completed: completed,
		Total:     total,
		Percent:   completed * 100 / total,
	}
	select {
	case ch <- p:
	default:
	}
}
