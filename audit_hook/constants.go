package audithook

// Action constants for audit events.
const (
	// Credential actions
	ActionCredentialIssued  = "credential.issued"
	ActionCredentialRenewed = "credential.renewed"
	ActionCredentialRevoked = "credential.revoked"

	// Plan actions
	ActionPriceChanged    = "plan.price_changed"
	ActionDurationChanged = "plan.duration_changed"

	// Control actions
	ActionPaused  = "membership.paused"
	ActionResumed = "membership.resumed"

	// Treasury actions
	ActionFundsWithdrawn = "funds.withdrawn"
)

// Resource constants for audit events.
const (
	ResourceCredential = "credential"
	ResourcePlan       = "plan"
	ResourceGate       = "gate"
	ResourceVault      = "vault"
)

// Category constants for audit events.
const (
	CategoryMembership = "membership"
	CategoryAdmin      = "admin"
	CategoryPayment    = "payment"
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
)
