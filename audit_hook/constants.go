package audithook

// Action constants for audit events.
const (
	// Booking actions
	ActionBookingCreated       = "booking.created"
	ActionBookingRejected      = "booking.rejected"
	ActionBookingStatusChanged = "booking.status_changed"

	// Client actions
	ActionClientCreated   = "client.created"
	ActionClientMerged    = "client.merged"
	ActionPaymentRecorded = "client.payment_recorded"
	ActionClientSettled   = "client.settled"

	// Catalog actions
	ActionPropertyCreated = "property.created"
	ActionPropertyUpdated = "property.updated"
	ActionPropertyDeleted = "property.deleted"
	ActionEmployeeCreated = "employee.created"
	ActionEmployeeUpdated = "employee.updated"

	// Account actions
	ActionUserRegistered = "user.registered"
	ActionLoginFailed    = "user.login_failed"
)

// Resource constants for audit events.
const (
	ResourceBooking  = "booking"
	ResourceClient   = "client"
	ResourceProperty = "property"
	ResourceEmployee = "employee"
	ResourceUser     = "user"
)

// Category constants for audit events.
const (
	CategorySales   = "sales"
	CategoryPayment = "payment"
	CategoryCatalog = "catalog"
	CategoryAccess  = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// allActions returns all known audit actions.
func allActions() []string {
	return []string{
		ActionBookingCreated,
		ActionBookingRejected,
		ActionBookingStatusChanged,
		ActionClientCreated,
		ActionClientMerged,
		ActionPaymentRecorded,
		ActionClientSettled,
		ActionPropertyCreated,
		ActionPropertyUpdated,
		ActionPropertyDeleted,
		ActionEmployeeCreated,
		ActionEmployeeUpdated,
		ActionUserRegistered,
		ActionLoginFailed,
	}
}
