package audithook

// Action constants for audit events.
const (
	// Member actions
	ActionMemberCreated = "member.created"
	ActionMemberUpdated = "member.updated"

	// Payment actions
	ActionPaymentRecorded = "payment.recorded"
	ActionPaymentUpdated  = "payment.updated"
	ActionPaymentDeleted  = "payment.deleted"

	// Receipt actions
	ActionReceiptFallback = "receipt.fallback"

	// Fee actions
	ActionFeeApplied   = "fee.applied"
	ActionFeeAnnualRun = "fee.annual_run"

	// Bulk actions
	ActionBulkPayments = "payment.bulk_run"
)

// Resource constants for audit events.
const (
	ResourceMember  = "member"
	ResourcePayment = "payment"
	ResourceReceipt = "receipt"
	ResourceFee     = "fee"
)

// Category constants for audit events.
const (
	CategoryMembership = "membership"
	CategoryPayment    = "payment"
	CategoryBilling    = "billing"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
