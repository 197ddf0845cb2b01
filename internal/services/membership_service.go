package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alumni/internal/access"
	"alumni/internal/models/db_models"
	"alumni/internal/models/request_models"
	resp "alumni/internal/models/response_models"
	"alumni/internal/repositories"
	"alumni/pkg/utils"
)

const statsWindow = 30 * 24 * time.Hour

type MembershipService interface {
	Create(ctx context.Context, p access.Principal, req request_models.CreateMembershipRequest) (*resp.MembershipResponse, error)
	Current(ctx context.Context, p access.Principal) (*resp.MyMembershipResponse, error)
	Cancel(ctx context.Context, p access.Principal, membershipID uuid.UUID) (*resp.MembershipResponse, error)
	List(ctx context.Context, p access.Principal, page utils.Page) (*resp.PagedResponse[resp.MembershipResponse], error)
	Stats(ctx context.Context, p access.Principal) (*resp.MembershipStatsResponse, error)
}

type membershipService struct {
	tx          repositories.Transactor
	accounts    repositories.AccountRepository
	memberships repositories.MembershipRepository
	payments    repositories.PaymentRepository
	publisher   EventPublisher
	clock       *Clock
	log         *zap.Logger
}

func NewMembershipService(
	tx repositories.Transactor,
	accounts repositories.AccountRepository,
	memberships repositories.MembershipRepository,
	payments repositories.PaymentRepository,
	publisher EventPublisher,
	clock *Clock,
	log *zap.Logger,
) MembershipService {
	return &membershipService{
		tx:          tx,
		accounts:    accounts,
		memberships: memberships,
		payments:    payments,
		publisher:   publisher,
		clock:       clock,
		log:         log,
	}
}

// Create starts a membership today. The account row is locked for the check
// and the insert, so two concurrent purchases cannot both pass the
// already-active check.
func (s *membershipService) Create(ctx context.Context, p access.Principal, req request_models.CreateMembershipRequest) (*resp.MembershipResponse, error) {
	const op = "services.MembershipService.Create"
	log := s.log.With(zap.String("op", op))

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	membershipType, err := access.ParseMembershipType(req.MembershipType)
	if err != nil {
		return nil, err
	}

	var (
		membership *db_models.Membership
		created    bool
		amount     = req.AmountMinor
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		account, err := s.accounts.LockByID(ctx, p.AccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return utils.ErrAccountNotFound
		}

		if req.PaymentID != "" {
			existing, err := s.memberships.FindByPaymentReference(ctx, req.PaymentID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.AccountID != p.AccountID {
					return utils.ErrMembershipAlreadyActive
				}
				membership = existing
				return nil
			}

			intent, err := s.membershipIntent(ctx, p.AccountID, membershipType, req.PaymentID)
			if err != nil {
				return err
			}
			amount = intent.AmountMinor
		}

		today := s.clock.Today()
		current, err := s.memberships.FindCurrent(ctx, p.AccountID, today)
		if err != nil {
			return err
		}
		if err := access.PurchaseMembership(p, current != nil); err != nil {
			return err
		}

		membership, err = newMembership(p.AccountID, membershipType, utils.FromDateUnix(today), amount, req.PaymentID)
		if err != nil {
			return err
		}
		if err := s.memberships.Insert(ctx, membership); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if _, sentinel := utils.Classify(err); sentinel == nil {
			log.Error("failed to create membership", zap.Error(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, err
	}

	if created {
		log.Info("membership activated",
			zap.String("membership_id", membership.ID.String()),
			zap.String("type", membership.MembershipType))
		publish(ctx, s.publisher, s.log, s.clock, EventMembershipActivated, membership.AccountID.String(), membershipEvent(membership))
	}

	out := toMembershipResponse(membership, s.clock.Loc)
	return &out, nil
}

func (s *membershipService) Current(ctx context.Context, p access.Principal) (*resp.MyMembershipResponse, error) {
	const op = "services.MembershipService.Current"

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	membership, err := s.memberships.FindCurrent(ctx, p.AccountID, s.clock.Today())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if membership == nil {
		return &resp.MyMembershipResponse{HasMembership: false}, nil
	}

	out := toMembershipResponse(membership, s.clock.Loc)
	return &resp.MyMembershipResponse{HasMembership: true, Membership: &out}, nil
}

func (s *membershipService) Cancel(ctx context.Context, p access.Principal, membershipID uuid.UUID) (*resp.MembershipResponse, error) {
	const op = "services.MembershipService.Cancel"

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}

	membership, err := s.memberships.FindByID(ctx, membershipID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if membership == nil {
		return nil, utils.ErrMembershipNotFound
	}
	if !p.Owns(membership.AccountID) && !p.IsAdmin() {
		return nil, utils.ErrNotOwner
	}

	if err := s.memberships.Deactivate(ctx, membershipID); err != nil {
		return nil, err
	}
	membership.IsActive = false

	s.log.Info("membership cancelled",
		zap.String("op", op),
		zap.String("membership_id", membershipID.String()),
		zap.String("by", p.AccountID.String()))
	publish(ctx, s.publisher, s.log, s.clock, EventMembershipCancelled, membership.AccountID.String(), membershipEvent(membership))

	out := toMembershipResponse(membership, s.clock.Loc)
	return &out, nil
}

func (s *membershipService) List(ctx context.Context, p access.Principal, page utils.Page) (*resp.PagedResponse[resp.MembershipResponse], error) {
	const op = "services.MembershipService.List"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	memberships, total, err := s.memberships.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]resp.MembershipResponse, 0, len(memberships))
	for i := range memberships {
		items = append(items, toMembershipResponse(&memberships[i], s.clock.Loc))
	}
	return pageOf(items, page, total), nil
}

func (s *membershipService) Stats(ctx context.Context, p access.Principal) (*resp.MembershipStatsResponse, error) {
	const op = "services.MembershipService.Stats"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := s.clock.Today()
	expiringBy := utils.FromDateUnix(today).Add(statsWindow).Unix()

	stats, err := s.memberships.Stats(ctx, today, now.Add(-statsWindow).Unix(), expiringBy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	byType := make([]resp.MembershipTypeCount, 0, len(stats.ByType))
	for t, c := range stats.ByType {
		byType = append(byType, resp.MembershipTypeCount{Type: t, Count: c})
	}
	sort.Slice(byType, func(i, j int) bool { return byType[i].Type < byType[j].Type })

	return &resp.MembershipStatsResponse{
		ByType:              byType,
		ActiveMemberships:   stats.ActiveMemberships,
		NewMemberships:      stats.NewMemberships,
		ExpiringMemberships: stats.ExpiringMemberships,
		TotalRevenueMinor:   stats.TotalRevenueMinor,
	}, nil
}

// newMembership builds an active membership of type t starting on start.
// membershipIntent returns the ledger row for reference when this account
// created it for this membership type and it has not failed.
func (s *membershipService) membershipIntent(ctx context.Context, accountID uuid.UUID, t access.MembershipType, reference string) (*db_models.Transaction, error) {
	intent, err := s.payments.FindByProviderIntentID(ctx, reference)
	if err != nil {
		return nil, err
	}
	if intent == nil ||
		intent.AccountID != accountID ||
		intent.IntentType != db_models.IntentTypeMembership ||
		intent.MembershipType != string(t) ||
		intent.Status == db_models.TxnStatusFailed {
		return nil, utils.ErrInvalidPaymentRef
	}
	return intent, nil
}

func newMembership(accountID uuid.UUID, t access.MembershipType, start time.Time, amountMinor int64, paymentReference string) (*db_models.Membership, error) {
	end, err := access.ComputeEndDate(start, t)
	if err != nil {
		return nil, err
	}
	return &db_models.Membership{
		AccountID:        accountID,
		MembershipType:   string(t),
		StartDate:        start.Unix(),
		EndDate:          end.Unix(),
		PaymentReference: optionalString(paymentReference),
		AmountMinor:      amountMinor,
		IsActive:         true,
	}, nil
}

type membershipEventData struct {
	MembershipID     string  `json:"membership_id"`
	AccountID        string  `json:"user_id"`
	MembershipType   string  `json:"membership_type"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	PaymentReference *string `json:"payment_id,omitempty"`
	IsActive         bool    `json:"is_active"`
}

func membershipEvent(m *db_models.Membership) membershipEventData {
	return membershipEventData{
		MembershipID:     m.ID.String(),
		AccountID:        m.AccountID.String(),
		MembershipType:   m.MembershipType,
		StartDate:        utils.FormatDate(m.StartDate),
		EndDate:          utils.FormatDate(m.EndDate),
		PaymentReference: m.PaymentReference,
		IsActive:         m.IsActive,
	}
}
