package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alumni/internal/models/db_models"
	"alumni/pkg/utils"
)

// DirectoryFilter narrows a directory search. Empty fields are ignored.
type DirectoryFilter struct {
	Name           string
	GraduationYear *int
	Major          string
	Company        string
	Location       string
}

type AccountRepository interface {
	Insert(ctx context.Context, account *db_models.Account) error
	Update(ctx context.Context, account *db_models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	LockByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	List(ctx context.Context, page utils.Page) ([]db_models.Account, int64, error)
	Search(ctx context.Context, filter DirectoryFilter, page utils.Page) ([]db_models.Account, int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	const op = "repositories.AccountRepository.Insert"

	if err := conn(ctx, a.db).Create(account).Error; err != nil {
		if IsUniqueViolation(err) {
			return utils.ErrEmailAlreadyExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *accountRepository) Update(ctx context.Context, account *db_models.Account) error {
	const op = "repositories.AccountRepository.Update"

	if err := conn(ctx, a.db).Save(account).Error; err != nil {
		if IsUniqueViolation(err) {
			return utils.ErrEmailAlreadyExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	return a.first(ctx, conn(ctx, a.db), "id = ?", id)
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	return a.first(ctx, conn(ctx, a.db), "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// LockByID reads the account with a row lock. Call it inside RunInTx to
// serialize writers acting on behalf of the same account.
func (a *accountRepository) LockByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	return a.first(ctx, forUpdate(conn(ctx, a.db)), "id = ?", id)
}

func (a *accountRepository) first(_ context.Context, db *gorm.DB, query string, args ...interface{}) (*db_models.Account, error) {
	const op = "repositories.AccountRepository.First"

	var account db_models.Account
	err := db.Where(query, args...).First(&account).Error

	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &account, nil
}

func (a *accountRepository) List(ctx context.Context, page utils.Page) ([]db_models.Account, int64, error) {
	return a.paginate(conn(ctx, a.db).Model(&db_models.Account{}), page)
}

func (a *accountRepository) Search(ctx context.Context, filter DirectoryFilter, page utils.Page) ([]db_models.Account, int64, error) {
	query := conn(ctx, a.db).Model(&db_models.Account{})

	if name := strings.TrimSpace(filter.Name); name != "" {
		pattern := likePattern(name)
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern)
	}
	if filter.GraduationYear != nil {
		query = query.Where("graduation_year = ?", *filter.GraduationYear)
	}
	if major := strings.TrimSpace(filter.Major); major != "" {
		query = query.Where("LOWER(major) LIKE ?", likePattern(major))
	}
	if company := strings.TrimSpace(filter.Company); company != "" {
		query = query.Where("LOWER(company) LIKE ?", likePattern(company))
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		query = query.Where("LOWER(location) LIKE ?", likePattern(location))
	}

	return a.paginate(query, page)
}

func (a *accountRepository) paginate(query *gorm.DB, page utils.Page) ([]db_models.Account, int64, error) {
	const op = "repositories.AccountRepository.paginate"

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var accounts []db_models.Account
	err := query.
		Order("last_name ASC, first_name ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return accounts, total, nil
}

// likePattern builds a case-insensitive substring pattern that works on both
// Postgres and SQLite.
func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
