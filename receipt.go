package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubware/ledger/payment"
)

// ReceiptNumber returns the receipt number the next payment in the given
// year would be issued, without recording anything.
func (l *Ledger) ReceiptNumber(ctx context.Context, year int) (string, error) {
	last, err := l.store.LatestReceiptNumber(ctx, year)
	if err != nil {
		if errors.Is(err, ErrNoReceipts) {
			return payment.FormatReceipt(year, 1), nil
		}
		return "", err
	}
	return payment.FormatReceipt(year, last+1), nil
}

// nextReceiptNumber issues the next sequential receipt number for the
// year. If the sequence cannot be read, a timestamp-based receipt is
// issued instead: uniqueness matters more than the clean sequential
// format, and a payment must never fail over its receipt number.
func (l *Ledger) nextReceiptNumber(ctx context.Context, year int) string {
	last, err := l.store.LatestReceiptNumber(ctx, year)
	if err != nil {
		if errors.Is(err, ErrNoReceipts) {
			return payment.FormatReceipt(year, 1)
		}

		receipt := fmt.Sprintf("R%04d-%d", year, l.clock().UnixMilli())
		l.logger.Warn("receipt sequence unavailable, issuing fallback receipt",
			"year", year,
			"receipt", receipt,
			"error", err,
		)
		l.plugins.EmitReceiptFallback(ctx, year, receipt, err)
		return receipt
	}
	return payment.FormatReceipt(year, last+1)
}
