package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alumni/internal/access"
	"alumni/internal/models/db_models"
	"alumni/internal/models/request_models"
	resp "alumni/internal/models/response_models"
	"alumni/internal/repositories"
	mem "alumni/pkg/memcache"
	"alumni/pkg/utils"
)

type AccountServiceInterface interface {
	Register(ctx context.Context, req request_models.SignUpRequest) (*resp.AuthResponse, error)
	Login(ctx context.Context, req request_models.LoginRequest) (*resp.AuthResponse, error)
	Me(ctx context.Context, p access.Principal) (*resp.AccountResponse, error)
	UpdateMe(ctx context.Context, p access.Principal, req request_models.UpdateProfileRequest) (*resp.AccountResponse, error)
	List(ctx context.Context, p access.Principal, page utils.Page) (*resp.PagedResponse[resp.AccountResponse], error)
	Search(ctx context.Context, p access.Principal, q request_models.DirectorySearchQuery, page utils.Page) (*resp.PagedResponse[resp.AccountResponse], error)
	Get(ctx context.Context, p access.Principal, id uuid.UUID) (*resp.AccountResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req request_models.ResetPasswordRequest) error
	// EnsureAdmin creates an admin account or promotes and re-keys an
	// existing one.
	EnsureAdmin(ctx context.Context, email, password, firstName, lastName string) (account *db_models.Account, created bool, err error)
}

type AccountSettings struct {
	ResetTokenTTL time.Duration
	FrontendURL   string
}

type AccountService struct {
	accountRepo  repositories.AccountRepository
	entitlements EntitlementService
	tokens       *utils.TokenManager
	resetTokens  mem.ResetTokenStore
	publisher    EventPublisher
	settings     AccountSettings
	clock        *Clock
	log          *zap.Logger
}

func NewAccountService(
	accountRepo repositories.AccountRepository,
	entitlements EntitlementService,
	tokens *utils.TokenManager,
	resetTokens mem.ResetTokenStore,
	publisher EventPublisher,
	settings AccountSettings,
	clock *Clock,
	log *zap.Logger,
) AccountServiceInterface {
	return &AccountService{
		accountRepo:  accountRepo,
		entitlements: entitlements,
		tokens:       tokens,
		resetTokens:  resetTokens,
		publisher:    publisher,
		settings:     settings,
		clock:        clock,
		log:          log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *AccountService) Register(ctx context.Context, req request_models.SignUpRequest) (*resp.AuthResponse, error) {
	const op = "services.AccountService.Register"

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &db_models.Account{
		Email:          normalizeEmail(req.Email),
		PasswordHash:   hashedPassword,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		GraduationYear: req.GraduationYear,
		Major:          strings.TrimSpace(req.Major),
	}
	if err := a.accountRepo.Insert(ctx, account); err != nil {
		if errors.Is(err, utils.ErrEmailAlreadyExists) {
			return nil, err
		}
		a.log.Error("failed to create account", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("account registered", zap.String("op", op), zap.String("account_id", account.ID.String()))
	return a.issueToken(account)
}

func (a *AccountService) Login(ctx context.Context, req request_models.LoginRequest) (*resp.AuthResponse, error) {
	const op = "services.AccountService.Login"

	account, err := a.accountRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, req.Password); err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	return a.issueToken(account)
}

func (a *AccountService) issueToken(account *db_models.Account) (*resp.AuthResponse, error) {
	token, err := a.tokens.CreateToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("services.AccountService.issueToken: %w", err)
	}
	return &resp.AuthResponse{AccessToken: token, TokenType: "bearer"}, nil
}

func (a *AccountService) Me(ctx context.Context, p access.Principal) (*resp.AccountResponse, error) {
	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	account, err := a.load(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}
	out := toAccountResponse(account, a.clock.Loc)
	return &out, nil
}

func (a *AccountService) UpdateMe(ctx context.Context, p access.Principal, req request_models.UpdateProfileRequest) (*resp.AccountResponse, error) {
	const op = "services.AccountService.UpdateMe"

	if err := access.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	account, err := a.load(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}

	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		account.PasswordHash = hashed
	}
	applyProfileUpdate(account, req)

	if err := a.accountRepo.Update(ctx, account); err != nil {
		if errors.Is(err, utils.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := toAccountResponse(account, a.clock.Loc)
	return &out, nil
}

func applyProfileUpdate(account *db_models.Account, req request_models.UpdateProfileRequest) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	if req.Email != nil {
		account.Email = normalizeEmail(*req.Email)
	}
	set(&account.FirstName, req.FirstName)
	set(&account.LastName, req.LastName)
	set(&account.Major, req.Major)
	set(&account.ProfileImageURL, req.ProfileImageURL)
	set(&account.Bio, req.Bio)
	set(&account.JobTitle, req.JobTitle)
	set(&account.Company, req.Company)
	set(&account.Location, req.Location)
	if req.GraduationYear != nil {
		account.GraduationYear = req.GraduationYear
	}
}

func (a *AccountService) List(ctx context.Context, p access.Principal, page utils.Page) (*resp.PagedResponse[resp.AccountResponse], error) {
	const op = "services.AccountService.List"

	if err := access.RequireAdmin(p); err != nil {
		return nil, err
	}
	accounts, total, err := a.accountRepo.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pageOf(a.toResponses(accounts), page, total), nil
}

func (a *AccountService) Search(ctx context.Context, p access.Principal, q request_models.DirectorySearchQuery, page utils.Page) (*resp.PagedResponse[resp.AccountResponse], error) {
	const op = "services.AccountService.Search"

	if err := a.entitlements.AccessDirectory(ctx, p); err != nil {
		return nil, err
	}

	accounts, total, err := a.accountRepo.Search(ctx, repositories.DirectoryFilter{
		Name:           q.Name,
		GraduationYear: q.GraduationYear,
		Major:          q.Major,
		Company:        q.Company,
		Location:       q.Location,
	}, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return pageOf(a.toResponses(accounts), page, total), nil
}

func (a *AccountService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*resp.AccountResponse, error) {
	if err := a.entitlements.AccessDirectory(ctx, p); err != nil {
		return nil, err
	}
	account, err := a.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toAccountResponse(account, a.clock.Loc)
	return &out, nil
}

func (a *AccountService) toResponses(accounts []db_models.Account) []resp.AccountResponse {
	out := make([]resp.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(&accounts[i], a.clock.Loc))
	}
	return out
}

func (a *AccountService) load(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	account, err := a.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("services.AccountService.load: %w", err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return account, nil
}

// ForgotPassword issues a single-use reset token. Unknown emails succeed
// silently so the endpoint cannot be used to enumerate accounts.
func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.AccountService.ForgotPassword"

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		a.log.Info("password reset requested for unknown email", zap.String("op", op))
		return nil
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := a.resetTokens.Set(ctx, token, account.ID.String(), a.settings.ResetTokenTTL); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(a.settings.FrontendURL, "/"), url.QueryEscape(token))
	publish(ctx, a.publisher, a.log, a.clock, EventPasswordResetRequested, account.ID.String(), map[string]string{
		"user_id":    account.ID.String(),
		"email":      account.Email,
		"first_name": account.FirstName,
		"reset_url":  link,
		"expires_at": a.clock.Now().Add(a.settings.ResetTokenTTL).UTC().Format(time.RFC3339),
	})
	return nil
}

func (a *AccountService) ResetPassword(ctx context.Context, req request_models.ResetPasswordRequest) error {
	const op = "services.AccountService.ResetPassword"

	accountID, err := a.resetTokens.Consume(ctx, req.Token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := uuid.Parse(accountID)
	if err != nil {
		return utils.ErrInvalidResetToken
	}

	account, err := a.accountRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		return utils.ErrInvalidResetToken
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	account.PasswordHash = hashed
	if err := a.accountRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("password reset", zap.String("op", op), zap.String("account_id", account.ID.String()))
	return nil
}

func (a *AccountService) EnsureAdmin(ctx context.Context, email, password, firstName, lastName string) (*db_models.Account, bool, error) {
	const op = "services.AccountService.EnsureAdmin"

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if account != nil {
		account.IsAdmin = true
		account.PasswordHash = hashed
		if err := a.accountRepo.Update(ctx, account); err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return account, false, nil
	}

	account = &db_models.Account{
		Email:        normalizeEmail(email),
		PasswordHash: hashed,
		FirstName:    firstName,
		LastName:     lastName,
		IsAdmin:      true,
	}
	if err := a.accountRepo.Insert(ctx, account); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return account, true, nil
}
