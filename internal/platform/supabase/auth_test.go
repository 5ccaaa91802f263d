package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body signInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","user":{"id":"u-1","email":"a@b.lk"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "anon", srv.Client())

	t.Run("ok", func(t *testing.T) {
		resp, err := c.SignIn(context.Background(), "a@b.lk", "secret")
		require.NoError(t, err)
		assert.Equal(t, "u-1", resp.User.ID)
		assert.Equal(t, "a@b.lk", resp.User.Email)
		assert.Equal(t, "at", resp.AccessToken)
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := c.SignIn(context.Background(), "a@b.lk", "nope")
		var sErr *Error
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, http.StatusBadRequest, sErr.StatusCode)
		assert.Equal(t, "Invalid login credentials", sErr.Message)
	})
}
