package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumni/internal/models/db_models"
	"alumni/pkg/utils"
)

type EventFilter struct {
	IncludeMembersOnly bool
	// UpcomingFrom, when non-zero, keeps events starting at or after it.
	UpcomingFrom int64
}

type EventRepository interface {
	Insert(ctx context.Context, event *db_models.Event) error
	Update(ctx context.Context, event *db_models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Event, error)
	LockByID(ctx context.Context, id uuid.UUID) (*db_models.Event, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]db_models.Event, error)
	List(ctx context.Context, filter EventFilter, page utils.Page) ([]db_models.Event, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (e *eventRepository) Insert(ctx context.Context, event *db_models.Event) error {
	const op = "repositories.EventRepository.Insert"

	if err := conn(ctx, e.db).Create(event).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (e *eventRepository) Update(ctx context.Context, event *db_models.Event) error {
	const op = "repositories.EventRepository.Update"

	if err := conn(ctx, e.db).Omit("Registrations").Save(event).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete removes the event and its registrations. Run it inside RunInTx so
// both deletes commit together.
func (e *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "repositories.EventRepository.Delete"

	db := conn(ctx, e.db)
	if err := db.Where("event_id = ?", id).Delete(&db_models.Registration{}).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res := db.Where("id = ?", id).Delete(&db_models.Event{})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrEventNotFound
	}
	return nil
}

func (e *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Event, error) {
	return e.first(conn(ctx, e.db), id)
}

// LockByID reads the event with a row lock. Registrations for the event are
// serialized on this lock, which keeps the capacity check and the insert
// atomic.
func (e *eventRepository) LockByID(ctx context.Context, id uuid.UUID) (*db_models.Event, error) {
	return e.first(forUpdate(conn(ctx, e.db)), id)
}

func (e *eventRepository) first(db *gorm.DB, id uuid.UUID) (*db_models.Event, error) {
	const op = "repositories.EventRepository.First"

	var event db_models.Event
	err := db.First(&event, "id = ?", id).Error

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

func (e *eventRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]db_models.Event, error) {
	const op = "repositories.EventRepository.FindByIDs"

	if len(ids) == 0 {
		return []db_models.Event{}, nil
	}

	var events []db_models.Event
	if err := conn(ctx, e.db).Where("id IN ?", ids).Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (e *eventRepository) List(ctx context.Context, filter EventFilter, page utils.Page) ([]db_models.Event, int64, error) {
	const op = "repositories.EventRepository.List"

	query := conn(ctx, e.db).Model(&db_models.Event{})
	if !filter.IncludeMembersOnly {
		query = query.Where("is_members_only = ?", false)
	}
	if filter.UpcomingFrom != 0 {
		query = query.Where("starts_at >= ?", filter.UpcomingFrom)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var events []db_models.Event
	err := query.
		Order("starts_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return events, total, nil
}
