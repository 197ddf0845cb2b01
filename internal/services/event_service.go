package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alumni/internal/access"
	"alumni/internal/models/db_models"
	"alumni/internal/models/request_models"
	resp "alumni/internal/models/response_models"
	"alumni/internal/repositories"
	"alumni/pkg/utils"
)

type EventService interface {
	List(ctx context.Context, p access.Principal, upcomingOnly bool, page utils.Page) (*resp.PagedResponse[resp.EventResponse], error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*resp.EventResponse, error)
	Create(ctx context.Context, p access.Principal, req request_models.CreateEventRequest) (*resp.EventResponse, error)
	Update(ctx context.Context, p access.Principal, id uuid.UUID, req request_models.UpdateEventRequest) (*resp.EventResponse, error)
	Delete(ctx context.Context, p access.Principal, id uuid.UUID) error
}

type eventService struct {
	tx            repositories.Transactor
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	entitlements  EntitlementService
	clock         *Clock
	log           *zap.Logger
}

func NewEventService(
	tx repositories.Transactor,
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	entitlements EntitlementService,
	clock *Clock,
	log *zap.Logger,
) EventService {
	return &eventService{
		tx:            tx,
		events:        events,
		registrations: registrations,
		entitlements:  entitlements,
		clock:         clock,
		log:           log,
	}
}

// List shows members-only events to admins and to accounts with a currently
// entitling membership.
func (s *eventService) List(ctx context.Context, p access.Principal, upcomingOnly bool, page utils.Page) (*resp.PagedResponse[resp.EventResponse], error) {
	const op = "services.EventService.List"

	filter := repositories.EventFilter{IncludeMembersOnly: p.IsAdmin()}
	if !p.IsAdmin() && !p.IsAnonymous() {
		hasActive, err := s.entitlements.HasActiveMembership(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		filter.IncludeMembersOnly = hasActive
	}
	if upcomingOnly {
		filter.UpcomingFrom = s.clock.Now().Unix()
	}

	events, total, err := s.events.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.withCallerDetails(ctx, p, events)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pageOf(items, page, total), nil
}

func (s *eventService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*resp.EventResponse, error) {
	const op = "services.EventService.Get"

	event, err := s.entitlements.ViewEvent(ctx, p, id)
	if err != nil {
		return nil, err
	}

	items, err := s.withCallerDetails(ctx, p, []db_models.Event{*event})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &items[0], nil
}

// withCallerDetails adds registered_count and is_registered for
// authenticated callers.
func (s *eventService) withCallerDetails(ctx context.Context, p access.Principal, events []db_models.Event) ([]resp.EventResponse, error) {
	out := make([]resp.EventResponse, 0, len(events))
	if p.IsAnonymous() {
		for i := range events {
			out = append(out, toEventResponse(&events[i], s.clock.Loc))
		}
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := s.registrations.CountByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}
	registered, err := s.registrations.RegisteredEventIDs(ctx, p.AccountID, ids)
	if err != nil {
		return nil, err
	}

	for i := range events {
		item := toEventResponse(&events[i], s.clock.Loc)
		count := counts[events[i].ID]
		isRegistered := registered[events[i].ID]
		item.RegisteredCount = &count
		item.IsRegistered = &isRegistered
		out = append(out, item)
	}
	return out, nil
}

func (s *eventService) Create(ctx context.Context, p access.Principal, req request_models.CreateEventRequest) (*resp.EventResponse, error) {
	const op = "services.EventService.Create"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	event := &db_models.Event{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		StartsAt:      req.EventDate.Unix(),
		Location:      strings.TrimSpace(req.Location),
		PriceMinor:    req.PriceMinor,
		Capacity:      req.Capacity,
		ImageURL:      req.ImageURL,
		IsMembersOnly: req.IsMembersOnly,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.log.Error("failed to create event", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("event created", zap.String("op", op), zap.String("event_id", event.ID.String()))
	out := toEventResponse(event, s.clock.Loc)
	return &out, nil
}

func (s *eventService) Update(ctx context.Context, p access.Principal, id uuid.UUID, req request_models.UpdateEventRequest) (*resp.EventResponse, error) {
	const op = "services.EventService.Update"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}

	var event *db_models.Event
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if event == nil {
			return utils.ErrEventNotFound
		}

		applyEventUpdate(event, req)
		return s.events.Update(ctx, event)
	})
	if err != nil {
		if _, sentinel := utils.Classify(err); sentinel == nil {
			s.log.Error("failed to update event", zap.String("op", op), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, err
	}

	out := toEventResponse(event, s.clock.Loc)
	return &out, nil
}

func applyEventUpdate(event *db_models.Event, req request_models.UpdateEventRequest) {
	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.EventDate != nil {
		event.StartsAt = req.EventDate.Unix()
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.PriceMinor != nil {
		event.PriceMinor = *req.PriceMinor
	}
	if req.Capacity != nil {
		event.Capacity = req.Capacity
	}
	if req.ImageURL != nil {
		event.ImageURL = *req.ImageURL
	}
	if req.IsMembersOnly != nil {
		event.IsMembersOnly = *req.IsMembersOnly
	}
}

// Delete removes the event together with its registrations.
func (s *eventService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	const op = "services.EventService.Delete"

	if err := access.RequireAdmin(p); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.events.Delete(ctx, id)
	})
	if err != nil {
		if _, sentinel := utils.Classify(err); sentinel == nil {
			s.log.Error("failed to delete event", zap.String("op", op), zap.Error(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		return err
	}

	s.log.Info("event deleted", zap.String("op", op), zap.String("event_id", id.String()))
	return nil
}
