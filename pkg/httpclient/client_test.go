package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/environment"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/notify"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/session"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fixture struct {
	server  *httptest.Server
	client  *Client
	store   *storage.MemoryStore
	session *session.Session
	rec     *notify.Recorder
}

func newFixture(t *testing.T, handler http.HandlerFunc, mutate ...func(*Options)) *fixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(storage.KeyBaseURL, srv.URL))

	resolver := environment.NewResolver(environment.ResolverOptions{
		Store:    store,
		Hostname: "localhost",
	})
	sess := session.New(store, nil)
	rec := &notify.Recorder{}

	opts := Options{
		Resolver:  resolver,
		Session:   sess,
		Notifier:  rec,
		Whitelist: []string{"/register", "/public/*"},
	}
	for _, m := range mutate {
		m(&opts)
	}

	c, err := New(opts)
	require.NoError(t, err)

	return &fixture{server: srv, client: c, store: store, session: sess, rec: rec}
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Resolver: environment.NewResolver(environment.ResolverOptions{})})
	assert.Error(t, err)
}

func TestSend_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":[]}`)
	})
	require.NoError(t, f.session.Save(&oauth2.Token{AccessToken: "T-123"}))

	_, err := f.client.Get(context.Background(), "/product/list", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer T-123", gotAuth)
}

func TestSend_WhitelistedPathsNeverCarryToken(t *testing.T) {
	paths := []string{"/login", "login", "/login/", "/login?redirect=1", "/register", "/public/banner"}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			var gotAuth []string
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Values("Authorization")
				writeEnvelope(w, http.StatusOK, `{"success":true,"data":null}`)
			})
			require.NoError(t, f.session.Save(&oauth2.Token{AccessToken: "T-123"}))

			_, err := f.client.Send(context.Background(), Request{
				Method:  "POST",
				Path:    p,
				Headers: map[string]string{"Authorization": "Bearer smuggled"},
			})
			require.NoError(t, err)
			assert.Empty(t, gotAuth)
		})
	}
}

func TestSend_NoTokenIsNotAnError(t *testing.T) {
	var gotAuth string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":1}`)
	})

	_, err := f.client.Get(context.Background(), "/order/list", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestSend_ExpiredTokenIsNotAttached(t *testing.T) {
	var gotAuth string
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":1}`)
	})
	require.NoError(t, f.session.Save(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Minute)}))

	_, err := f.client.Get(context.Background(), "/order/list", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestSend_SuccessReturnsData(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":{"id":7,"name":"Wallet"},"message":"ok"}`)
	})

	data, err := f.client.Get(context.Background(), "/wallet/7", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"name":"Wallet"}`, string(data))
	assert.Empty(t, f.rec.Notifications())
}

func TestSend_SuccessWithoutData(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true}`)
	})

	data, err := f.client.Delete(context.Background(), "/user/3")
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestSend_ApplicationFailure(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":false,"data":null,"message":"Insufficient wallet balance"}`)
	})

	_, err := f.client.Post(context.Background(), "/wallet/withdraw", map[string]int{"amount": 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrApplication))
	assert.Equal(t, "Insufficient wallet balance", err.Error())

	sent := f.rec.Notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.Error, sent[0].Level)
	assert.Equal(t, "Insufficient wallet balance", sent[0].Message)
}

func TestSend_UnauthorizedClearsToken(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, `{"success":false,"message":"token expired"}`)
	})

	var hookCalls int32
	f.client.onUnauth = func(ctx context.Context) { atomic.AddInt32(&hookCalls, 1) }

	require.NoError(t, f.session.Save(&oauth2.Token{AccessToken: "T-123"}))

	_, err := f.client.Get(context.Background(), "/permission/list", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrUnauthenticated))

	_, ok := f.store.Get(storage.KeyToken)
	assert.False(t, ok, "401 must clear the stored token")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))

	sent := f.rec.Notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.Warning, sent[0].Level)
	assert.Equal(t, "token expired", sent[0].Message)
}

func TestSend_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"envelope message", http.StatusInternalServerError, `{"success":false,"message":"database unavailable"}`, "database unavailable"},
		{"plain text body", http.StatusNotFound, `page not found`, "Not Found"},
		{"empty body", http.StatusForbidden, ``, "Forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.body)
			})

			_, err := f.client.Get(context.Background(), "/order/1", nil)
			require.Error(t, err)

			var apiErr *apierror.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, apierror.Application, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Len(t, f.rec.Notifications(), 1)
		})
	}
}

func TestSend_MalformedResponse(t *testing.T) {
	bodies := map[string]string{
		"not json":         `<html>oops</html>`,
		"missing success":  `{"data":{"id":1}}`,
		"success not bool": `{"success":"yes","data":1}`,
		"message not text": `{"success":false,"message":42}`,
		"array":            `[1,2,3]`,
		"empty":            ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, body)
			})

			_, err := f.client.Get(context.Background(), "/product/list", nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apierror.ErrMalformedResponse), "got %v", err)
			assert.Len(t, f.rec.Notifications(), 1)
		})
	}
}

func TestSend_TransportError(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})
	f.server.Close()

	_, err := f.client.Get(context.Background(), "/product/list", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrTransport))

	sent := f.rec.Notifications()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, "sign in")
}

func TestSend_CancelledRequestIsNotNotified(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.client.Get(ctx, "/product/list", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrTransport))
	assert.Empty(t, f.rec.Notifications())
}

func TestSend_BuildsURLFromActiveEnvironment(t *testing.T) {
	var gotPath, gotQuery, gotContentType string
	var gotBody map[string]interface{}
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":null}`)
	})

	_, err := f.client.Send(context.Background(), Request{
		Method: "put",
		Path:   "product/update?lang=en",
		Query:  url.Values{"page": {"2"}},
		Body:   map[string]string{"name": "Phone"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/product/update", gotPath)
	assert.Equal(t, "lang=en&page=2", gotQuery)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]interface{}{"name": "Phone"}, gotBody)
}

func TestSend_FollowsEnvironmentSwitch(t *testing.T) {
	var hits int32
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":"first"}`)
	})
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":"second"}`)
	}))
	defer second.Close()

	_, err := f.client.Resolver().SetBaseURL(second.URL)
	require.NoError(t, err)

	data, err := f.client.Get(context.Background(), "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, `"second"`, string(data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSend_RateLimitHonoursContext(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":1}`)
	}, func(o *Options) {
		o.RateLimit = 0.01
		o.RateBurst = 1
	})

	_, err := f.client.Get(context.Background(), "/ping", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.client.Get(ctx, "/ping", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierror.ErrTransport))
}

type product struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func TestSendAs(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"data":[{"id":1,"title":"Phone"},{"id":2,"title":"Case"}]}`)
	})

	got, err := SendAs[[]product](context.Background(), f.client, Request{Path: "/product/list"})
	require.NoError(t, err)
	assert.Equal(t, []product{{1, "Phone"}, {2, "Case"}}, got)

	_, err = SendAs[product](context.Background(), f.client, Request{Path: "/product/list"})
	assert.True(t, errors.Is(err, apierror.ErrMalformedResponse))
}
