package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"alumni/internal/access"
	"alumni/internal/models/db_models"
	"alumni/internal/repositories"
	"alumni/pkg/utils"
)

// EntitlementService loads the facts the access rules need and applies them.
type EntitlementService interface {
	// Resolve turns an authenticated account id into a principal. A token for
	// an account that no longer exists is invalid.
	Resolve(ctx context.Context, accountID uuid.UUID) (access.Principal, error)
	HasActiveMembership(ctx context.Context, p access.Principal) (bool, error)
	ViewEvent(ctx context.Context, p access.Principal, eventID uuid.UUID) (*db_models.Event, error)
	AccessDirectory(ctx context.Context, p access.Principal) error
	Today() int64
}

type entitlementService struct {
	accounts    repositories.AccountRepository
	memberships repositories.MembershipRepository
	events      repositories.EventRepository
	clock       *Clock
}

func NewEntitlementService(
	accounts repositories.AccountRepository,
	memberships repositories.MembershipRepository,
	events repositories.EventRepository,
	clock *Clock,
) EntitlementService {
	return &entitlementService{
		accounts:    accounts,
		memberships: memberships,
		events:      events,
		clock:       clock,
	}
}

func (s *entitlementService) Resolve(ctx context.Context, accountID uuid.UUID) (access.Principal, error) {
	const op = "services.EntitlementService.Resolve"

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return access.Anonymous(), fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		return access.Anonymous(), utils.ErrInvalidToken
	}
	return principalOf(account), nil
}

func (s *entitlementService) HasActiveMembership(ctx context.Context, p access.Principal) (bool, error) {
	const op = "services.EntitlementService.HasActiveMembership"

	if p.IsAnonymous() {
		return false, nil
	}
	m, err := s.memberships.FindCurrent(ctx, p.AccountID, s.Today())
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return m != nil, nil
}

func (s *entitlementService) ViewEvent(ctx context.Context, p access.Principal, eventID uuid.UUID) (*db_models.Event, error) {
	const op = "services.EntitlementService.ViewEvent"

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if event == nil {
		return nil, utils.ErrEventNotFound
	}

	hasActive, err := s.membershipNeeded(ctx, p, event.IsMembersOnly)
	if err != nil {
		return nil, err
	}
	if err := access.ViewEvent(p, event, hasActive); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *entitlementService) AccessDirectory(ctx context.Context, p access.Principal) error {
	hasActive, err := s.membershipNeeded(ctx, p, true)
	if err != nil {
		return err
	}
	return access.AccessDirectory(p, hasActive)
}

func (s *entitlementService) Today() int64 {
	return s.clock.Today()
}

// membershipNeeded looks up the membership only when the decision depends on
// it.
func (s *entitlementService) membershipNeeded(ctx context.Context, p access.Principal, gated bool) (bool, error) {
	if !gated || p.IsAnonymous() || p.IsAdmin() {
		return false, nil
	}
	return s.HasActiveMembership(ctx, p)
}

func principalOf(account *db_models.Account) access.Principal {
	if account.IsAdmin {
		return access.Admin(account.ID)
	}
	return access.Member(account.ID)
}
