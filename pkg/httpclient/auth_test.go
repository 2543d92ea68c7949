package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/notify"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLogin_StoresToken(t *testing.T) {
	var gotCreds Credentials
	var gotAuth []string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Values("Authorization")
		json.NewDecoder(r.Body).Decode(&gotCreds)
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"token":"fresh","expiresIn":3600}}`)
	})
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	f.client.now = func() time.Time { return now }

	require.NoError(t, f.session.Save(&oauth2.Token{AccessToken: "stale"}))

	tok, err := f.client.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, Credentials{Username: "admin", Password: "s3cret"}, gotCreds)
	assert.Empty(t, gotAuth, "login must not carry the previous token")
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.True(t, tok.Expiry.Equal(now.Add(time.Hour)))

	stored, ok := f.store.Get(storage.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "fresh", stored)
}

func TestLogin_AcceptsBareTokenString(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":"abc.def.ghi"}`)
	})

	tok, err := f.client.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok.AccessToken)
	assert.True(t, tok.Expiry.IsZero())
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"wrong password", `{"success":false,"message":"Invalid username or password"}`, apierror.ErrApplication},
		{"no token", `{"success":true,"data":{"user":"admin"}}`, apierror.ErrMalformedResponse},
		{"null data", `{"success":true,"data":null}`, apierror.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, tt.body)
			})

			_, err := f.client.Login(context.Background(), "admin", "pw")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			_, ok := f.session.Token()
			assert.False(t, ok)
			assert.Len(t, f.rec.Notifications(), 1)
		})
	}
}

func TestLogin_RejectedCredentialsDoNotSignOut(t *testing.T) {
	hookCalls := 0
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid username or password"}`)
	}, func(o *Options) {
		o.OnUnauthenticated = func(ctx context.Context) { hookCalls++ }
	})

	_, err := f.client.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrUnauthenticated))
	assert.Equal(t, 0, hookCalls)

	notes := f.rec.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, notify.Error, notes[0].Level)
	assert.Equal(t, "Sign in failed", notes[0].Title)
	assert.Equal(t, "Invalid username or password", notes[0].Message)
}

func TestLogin_RequiresCredentials(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := f.client.Login(context.Background(), "", "pw")
	assert.True(t, errors.Is(err, apierror.ErrInvalidConfiguration))
}

func TestLogout(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	require.NoError(t, f.session.Save(&oauth2.Token{AccessToken: "abc"}))

	require.NoError(t, f.client.Logout())
	_, ok := f.session.Token()
	assert.False(t, ok)
}
