package access

import (
	"alumni/internal/models/db_models"
	"alumni/pkg/utils"
)

func RequireAuthenticated(p Principal) error {
	if p.IsAnonymous() {
		return utils.ErrAuthRequired
	}
	return nil
}

func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return utils.ErrAdminRequired
	}
	return nil
}

// ViewEvent: admins see everything, public events are open to anyone, and
// members-only events need an authenticated caller with a currently
// entitling membership.
func ViewEvent(p Principal, event *db_models.Event, hasActiveMembership bool) error {
	if p.IsAdmin() {
		return nil
	}
	if !event.IsMembersOnly {
		return nil
	}
	return requireMembership(p, hasActiveMembership)
}

// RegisterForEvent is ViewEvent except that public events also need an
// authenticated caller.
func RegisterForEvent(p Principal, event *db_models.Event, hasActiveMembership bool) error {
	if p.IsAdmin() {
		return nil
	}
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !event.IsMembersOnly {
		return nil
	}
	return requireMembership(p, hasActiveMembership)
}

// AccessDirectory guards the alumni directory search and profile pages.
func AccessDirectory(p Principal, hasActiveMembership bool) error {
	if p.IsAdmin() {
		return nil
	}
	return requireMembership(p, hasActiveMembership)
}

// PurchaseMembership rejects a second currently entitling membership. This
// is a state conflict, so it applies to admins as well.
func PurchaseMembership(p Principal, hasActiveMembership bool) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if hasActiveMembership {
		return utils.ErrMembershipAlreadyActive
	}
	return nil
}

// CheckSeat rejects a duplicate registration, then a full event. The caller
// reports a missing event itself.
func CheckSeat(event *db_models.Event, alreadyRegistered bool, registeredCount int64) error {
	if alreadyRegistered {
		return utils.ErrAlreadyRegistered
	}
	if event.IsFull(registeredCount) {
		return utils.ErrEventFull
	}
	return nil
}

func requireMembership(p Principal, hasActiveMembership bool) error {
	if p.IsAnonymous() {
		return utils.ErrAuthRequired
	}
	if !hasActiveMembership {
		return utils.ErrMembershipRequired
	}
	return nil
}
