package utils

import "errors"

var (
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")

	ErrAccountNotFound      = errors.New("account not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrMembershipNotFound   = errors.New("membership not found")

	ErrEmailAlreadyExists      = errors.New("email already registered")
	ErrAlreadyRegistered       = errors.New("already registered for this event")
	ErrEventFull               = errors.New("event is at capacity")
	ErrMembershipAlreadyActive = errors.New("you already have an active membership")

	ErrAuthRequired       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrMembershipRequired = errors.New("membership required")
	ErrAdminRequired      = errors.New("not enough permissions")
	ErrNotOwner           = errors.New("not authorized to modify this resource")

	ErrInvalidMembershipType  = errors.New("invalid membership type")
	ErrMissingPaymentTarget   = errors.New("either event_id or membership_type must be provided")
	ErrAmbiguousPaymentTarget = errors.New("only one of event_id or membership_type may be provided")
	ErrEventAlreadyStarted    = errors.New("cannot cancel registration for past or ongoing events")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrInvalidWebhook         = errors.New("invalid webhook payload or signature")
	ErrNotBillable            = errors.New("nothing to pay for this target")
	ErrInvalidPaymentRef      = errors.New("payment reference does not match this purchase")

	ErrPaymentDeclined    = errors.New("payment was declined")
	ErrGatewayUnavailable = errors.New("payment provider unavailable")

	// ErrReconciliationDropped marks a confirmed payment that could not be turned
	// into a record. The notification is acknowledged and the failure persisted.
	ErrReconciliationDropped = errors.New("payment could not be reconciled")
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindAuthRequired
	KindInvalidInput
	KindUnavailable
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrAccountNotFound, KindNotFound},
	{ErrEventNotFound, KindNotFound},
	{ErrRegistrationNotFound, KindNotFound},
	{ErrMembershipNotFound, KindNotFound},

	{ErrEmailAlreadyExists, KindConflict},
	{ErrAlreadyRegistered, KindConflict},
	{ErrEventFull, KindConflict},
	{ErrMembershipAlreadyActive, KindConflict},

	{ErrAuthRequired, KindAuthRequired},
	{ErrInvalidCredentials, KindAuthRequired},
	{ErrInvalidToken, KindAuthRequired},

	{ErrMembershipRequired, KindForbidden},
	{ErrAdminRequired, KindForbidden},
	{ErrNotOwner, KindForbidden},

	{ErrInvalidPage, KindInvalidInput},
	{ErrInvalidPageSize, KindInvalidInput},
	{ErrInvalidMembershipType, KindInvalidInput},
	{ErrMissingPaymentTarget, KindInvalidInput},
	{ErrAmbiguousPaymentTarget, KindInvalidInput},
	{ErrEventAlreadyStarted, KindInvalidInput},
	{ErrInvalidResetToken, KindInvalidInput},
	{ErrInvalidWebhook, KindInvalidInput},
	{ErrNotBillable, KindInvalidInput},
	{ErrInvalidPaymentRef, KindInvalidInput},
	{ErrPaymentDeclined, KindInvalidInput},

	{ErrGatewayUnavailable, KindUnavailable},
}

// Classify returns the kind of err and the sentinel it matched, or
// (KindInternal, nil) when err carries no known sentinel.
func Classify(err error) (ErrorKind, error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind, k.err
		}
	}
	return KindInternal, nil
}
