package services

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni/internal/access"
	"alumni/internal/models/request_models"
	"alumni/internal/testutil"
	mem "alumni/pkg/memcache"
	"alumni/pkg/utils"
)

func signUp(t *testing.T, svc AccountServiceInterface, email, password string) {
	t.Helper()
	_, err := svc.Register(context.Background(), request_models.SignUpRequest{
		Email:     email,
		Password:  password,
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
	})
	require.NoError(t, err)
}

func TestAccountRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	svc := h.accountService(mem.NewResetTokens())
	ctx := context.Background()

	year := 2012
	auth, err := svc.Register(ctx, request_models.SignUpRequest{
		Email:          "Grace.Hopper@Example.org ",
		Password:       "correct horse",
		FirstName:      "Grace",
		LastName:       "Hopper",
		GraduationYear: &year,
		Major:          "Mathematics",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.AccessToken)
	assert.Equal(t, "bearer", auth.TokenType)

	_, err = svc.Register(ctx, request_models.SignUpRequest{
		Email:     "grace.hopper@example.org",
		Password:  "another password",
		FirstName: "G",
		LastName:  "H",
	})
	assert.ErrorIs(t, err, utils.ErrEmailAlreadyExists)

	login, err := svc.Login(ctx, request_models.LoginRequest{Email: "GRACE.HOPPER@example.org", Password: "correct horse"})
	require.NoError(t, err)

	id, err := utils.NewTokenManager("test-secret", time.Hour).ValidateToken(login.AccessToken)
	require.NoError(t, err)
	me, err := svc.Me(ctx, access.Member(id))
	require.NoError(t, err)
	assert.Equal(t, "grace.hopper@example.org", me.Email)
	assert.Equal(t, 2012, *me.GraduationYear)
	assert.False(t, me.IsAdmin)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "grace.hopper@example.org", Password: "wrong password"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "nobody@example.org", Password: "correct horse"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestAccountUpdateMe(t *testing.T) {
	h := newHarness(t)
	svc := h.accountService(mem.NewResetTokens())
	ctx := context.Background()
	signUp(t, svc, "ada@example.org", "old password")
	other := testutil.CreateAccount(t, h.db, false)

	account, err := h.accounts.FindByEmail(ctx, "ada@example.org")
	require.NoError(t, err)
	p := access.Member(account.ID)

	company, password := "Analytical Engines Ltd", "new password"
	updated, err := svc.UpdateMe(ctx, p, request_models.UpdateProfileRequest{Company: &company, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, company, updated.Company)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "ada@example.org", Password: "new password"})
	assert.NoError(t, err)

	taken := other.Email
	_, err = svc.UpdateMe(ctx, p, request_models.UpdateProfileRequest{Email: &taken})
	assert.ErrorIs(t, err, utils.ErrEmailAlreadyExists)

	_, err = svc.UpdateMe(ctx, access.Anonymous(), request_models.UpdateProfileRequest{Company: &company})
	assert.ErrorIs(t, err, utils.ErrAuthRequired)
}

func TestAccountDirectoryAccess(t *testing.T) {
	h := newHarness(t)
	svc := h.accountService(mem.NewResetTokens())
	ctx := context.Background()
	member := testutil.CreateAccount(t, h.db, false)
	target := testutil.CreateAccount(t, h.db, false)
	admin := testutil.CreateAccount(t, h.db, true)

	_, err := svc.Search(ctx, access.Anonymous(), request_models.DirectorySearchQuery{}, firstPage)
	assert.ErrorIs(t, err, utils.ErrAuthRequired)

	_, err = svc.Search(ctx, access.Member(member.ID), request_models.DirectorySearchQuery{}, firstPage)
	assert.ErrorIs(t, err, utils.ErrMembershipRequired)

	_, err = svc.Get(ctx, access.Member(member.ID), target.ID)
	assert.ErrorIs(t, err, utils.ErrMembershipRequired)

	h.activeMembership(t, member.ID)

	found, err := svc.Search(ctx, access.Member(member.ID), request_models.DirectorySearchQuery{Company: target.Company}, firstPage)
	require.NoError(t, err)
	var emails []string
	for _, item := range found.Items {
		emails = append(emails, item.Email)
	}
	assert.Contains(t, emails, target.Email)

	got, err := svc.Get(ctx, access.Member(member.ID), target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.Email, got.Email)

	_, err = svc.Get(ctx, access.Admin(admin.ID), testutil.MustParseUUID(t, "00000000-0000-0000-0000-000000000001"))
	assert.ErrorIs(t, err, utils.ErrAccountNotFound)

	_, err = svc.List(ctx, access.Member(member.ID), firstPage)
	assert.ErrorIs(t, err, utils.ErrAdminRequired)

	all, err := svc.List(ctx, access.Admin(admin.ID), firstPage)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
}

func TestAccountPasswordReset(t *testing.T) {
	h := newHarness(t)
	svc := h.accountService(mem.NewResetTokens())
	ctx := context.Background()
	signUp(t, svc, "linus@example.org", "first password")

	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.org"))
	assert.Empty(t, h.publisher.ofType(EventPasswordResetRequested))

	require.NoError(t, svc.ForgotPassword(ctx, "Linus@Example.org"))
	published := h.publisher.ofType(EventPasswordResetRequested)
	require.Len(t, published, 1)

	data, ok := published[0].Data.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "linus@example.org", data["email"])

	link, err := url.Parse(data["reset_url"])
	require.NoError(t, err)
	assert.Equal(t, "alumni.example.org", link.Host)
	assert.Equal(t, "/reset-password", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	err = svc.ResetPassword(ctx, request_models.ResetPasswordRequest{Token: token, NewPassword: "second password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "linus@example.org", Password: "second password"})
	assert.NoError(t, err)
	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "linus@example.org", Password: "first password"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	err = svc.ResetPassword(ctx, request_models.ResetPasswordRequest{Token: token, NewPassword: "third password"})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)

	err = svc.ResetPassword(ctx, request_models.ResetPasswordRequest{Token: "made-up", NewPassword: "third password"})
	assert.ErrorIs(t, err, utils.ErrInvalidResetToken)
}

func TestAccountEnsureAdmin(t *testing.T) {
	h := newHarness(t)
	svc := h.accountService(mem.NewResetTokens())
	ctx := context.Background()

	account, created, err := svc.EnsureAdmin(ctx, "Root@Example.org", "admin password", "Site", "Admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, account.IsAdmin)
	assert.Equal(t, "root@example.org", account.Email)

	signUp(t, svc, "promote@example.org", "member password")
	promoted, created, err := svc.EnsureAdmin(ctx, "promote@example.org", "rotated password", "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, promoted.IsAdmin)

	_, err = svc.Login(ctx, request_models.LoginRequest{Email: "promote@example.org", Password: "rotated password"})
	assert.NoError(t, err)

	p, err := h.entitlements.Resolve(ctx, promoted.ID)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}
