package payment

import (
	"fmt"
	"regexp"
	"strconv"
)

// Receipt numbers look like "R2025-001": the letter R, the four-digit
// year, a dash, and a per-year sequence zero-padded to at least three
// digits. The sequence widens naturally past 999 ("R2025-1000").
//
// The suffix is capped at nine digits so that timestamp fallback
// receipts (thirteen-digit epoch millis) never parse as sequence
// numbers and never advance the per-year counter.
var receiptPattern = regexp.MustCompile(`^R(\d{4})-(\d{3,9})$`)

// FormatReceipt builds a receipt number from a year and sequence.
func FormatReceipt(year, seq int) string {
	return fmt.Sprintf("R%04d-%03d", year, seq)
}

// ParseReceipt extracts the year and sequence from a receipt number.
// Fallback receipts (timestamp-based, issued when the sequence could not
// be read) do not match and return an error.
func ParseReceipt(receipt string) (year, seq int, err error) {
	m := receiptPattern.FindStringSubmatch(receipt)
	if m == nil {
		return 0, 0, fmt.Errorf("payment: malformed receipt number %q", receipt)
	}

	year, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, fmt.Errorf("payment: malformed receipt year in %q", receipt)
	}

	seq, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, fmt.Errorf("payment: malformed receipt sequence in %q", receipt)
	}

	return year, seq, nil
}
