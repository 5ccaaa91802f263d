package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paperarchive/internal/app/session"
	"paperarchive/internal/common"
	"paperarchive/internal/common/security"
	"paperarchive/internal/domain/model"
	"paperarchive/internal/domain/repository/inmem"
	"paperarchive/internal/platform/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) (*AuthService, *inmem.DB) {
	t.Helper()
	security.InitJWT([]byte("test-secret"), time.Hour)
	db := inmem.Open()
	users := inmem.NewUserRepository(db)
	svc := NewAuthService(NewLocalIdentityProvider(users), users, inmem.NewRoleRepository(db), common.NewValidator(), zap.NewNop())
	return svc, db
}

func TestLoginAdmin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.AddUser(ctx, " Admin@Example.com ", "s3cret", true)
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, session.Authenticated, resp.Session.Status)
	assert.True(t, resp.Session.IsAdmin())
	assert.Equal(t, "admin@example.com", resp.Session.Email)
}

func TestLoginNonAdmin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.AddUser(ctx, "reader@example.com", "pw", false)
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "reader@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, resp.Session.Role)
	assert.False(t, resp.Session.IsAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.AddUser(ctx, "reader@example.com", "pw", false)
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "reader@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "pw"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginRequest{Email: "not-an-email"})
	var vErr *common.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "email")
	assert.Contains(t, vErr.Fields, "password")
}

func TestAddUserResetsPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	first, err := svc.AddUser(ctx, "a@example.com", "old", false)
	require.NoError(t, err)
	assert.Empty(t, first.HashedPassword)
	second, err := svc.AddUser(ctx, "a@example.com", "new", true)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "old"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	resp, err := svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "new"})
	require.NoError(t, err)
	assert.True(t, resp.Session.IsAdmin())
}

func TestSupabaseIdentityProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("grant_type") != "password" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"msg":"missing apikey"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	p := NewSupabaseIdentityProvider(supabase.NewClient(srv.URL, "anon", srv.Client()))
	_, err := p.Authenticate(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid login credentials")

	p = NewSupabaseIdentityProvider(supabase.NewClient(srv.URL, "wrong", srv.Client()))
	_, err = p.Authenticate(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}
