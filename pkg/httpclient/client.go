// Package httpclient is the console's single point of contact with the REST
// backend. It resolves the active base URL, attaches the bearer token to
// non-whitelisted requests, and turns every reply into either the envelope's
// data or a classified *apierror.Error.
//
// A Client is built explicitly by the application's composition root and is
// safe for concurrent use. Concurrent calls are not ordered relative to each
// other.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/environment"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/notify"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/session"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultLoginPath = "/login"
	userAgent        = "qtsctl"
	// maxBodyBytes caps how much of a reply is read.
	maxBodyBytes = 10 << 20
)

// Doer abstracts HTTP client operations for testability
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Resolver and Session are required.
type Options struct {
	Resolver *environment.Resolver
	Session  *session.Session
	Notifier notify.Notifier
	Logger   *zap.Logger

	// Timeout applies to the default HTTP client; zero means DefaultTimeout.
	Timeout time.Duration
	// Whitelist lists paths sent without Authorization. LoginPath is always
	// whitelisted.
	Whitelist []string
	LoginPath string

	// RateLimit caps outgoing requests per second; zero disables it.
	RateLimit float64
	RateBurst int

	// OnUnauthenticated runs after a 401 has cleared the session. Whether
	// that leads to a login screen is up to the application.
	OnUnauthenticated func(ctx context.Context)

	// Doer replaces the default HTTP client (which keeps cookies).
	Doer Doer
}

// Client sends requests to the active backend.
type Client struct {
	resolver  *environment.Resolver
	session   *session.Session
	notifier  notify.Notifier
	log       *zap.Logger
	doer      Doer
	whitelist *whitelist
	loginPath string
	limiter   *rate.Limiter
	onUnauth  func(ctx context.Context)
	now       func() time.Time
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	if opts.Resolver == nil {
		return nil, errors.New("resolver cannot be nil")
	}
	if opts.Session == nil {
		return nil, errors.New("session cannot be nil")
	}

	c := &Client{
		resolver:  opts.Resolver,
		session:   opts.Session,
		notifier:  opts.Notifier,
		log:       opts.Logger,
		doer:      opts.Doer,
		loginPath: opts.LoginPath,
		onUnauth:  opts.OnUnauthenticated,
		now:       time.Now,
	}

	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.loginPath == "" {
		c.loginPath = DefaultLoginPath
	}
	c.whitelist = newWhitelist(append([]string{c.loginPath}, opts.Whitelist...)...)

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	if c.doer == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.doer = &http.Client{Timeout: timeout, Jar: jar}
	}

	return c, nil
}

// Resolver returns the base-URL resolver the client reads on every call.
func (c *Client) Resolver() *environment.Resolver {
	return c.resolver
}

// Session returns the token holder.
func (c *Client) Session() *session.Session {
	return c.session
}

// Send performs req against the active base URL and returns the envelope's
// data. Every failure is an *apierror.Error; all but caller cancellation are
// also reported once through the Notifier.
func (c *Client) Send(ctx context.Context, req Request) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.fail(ctx, apierror.NewTransport(err))
		}
	}

	baseURL := c.resolver.ActiveBaseURL()
	target, err := buildURL(baseURL, req)
	if err != nil {
		return nil, c.fail(ctx, apierror.NewInvalidConfiguration(err.Error()))
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, c.fail(ctx, apierror.NewInvalidConfiguration(err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, body)
	if err != nil {
		return nil, c.fail(ctx, apierror.NewInvalidConfiguration(fmt.Sprintf("failed to create request: %v", err)))
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		if strings.EqualFold(key, "Authorization") {
			continue
		}
		httpReq.Header.Set(key, value)
	}

	authorized := false
	if !c.whitelist.contains(req.Path) {
		if tok, ok := c.session.Token(); ok {
			tok.SetAuthHeader(httpReq)
			authorized = true
		}
	}

	log := c.log.With(
		zap.String("method", httpReq.Method),
		zap.String("path", req.Path),
		zap.String("base_url", baseURL),
	)
	log.Debug("sending request", zap.Bool("authorized", authorized))

	start := c.now()
	resp, err := c.doer.Do(httpReq)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return nil, c.fail(ctx, apierror.NewTransport(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Warn("failed to read response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, c.fail(ctx, apierror.NewTransport(err))
	}

	log.Info("request finished",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", c.now().Sub(start)),
	)

	return c.unwrap(ctx, req.Path, resp.StatusCode, raw)
}

// unwrap maps a reply onto the error taxonomy.
func (c *Client) unwrap(ctx context.Context, path string, status int, raw []byte) (json.RawMessage, error) {
	env, parseErr := parseEnvelope(raw)

	if status == http.StatusUnauthorized {
		if normalizePath(path) == normalizePath(c.loginPath) {
			msg := "invalid username or password"
			if parseErr == nil && env.Message != "" {
				msg = env.Message
			}
			return nil, c.rejectedLogin(msg)
		}

		msg := "session expired, please sign in again"
		if parseErr == nil && env.Message != "" {
			msg = env.Message
		}
		return nil, c.unauthenticated(ctx, msg)
	}

	if status < 200 || status > 299 {
		msg := http.StatusText(status)
		if parseErr == nil && env.Message != "" {
			msg = env.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		return nil, c.fail(ctx, apierror.NewApplication(status, msg))
	}

	if parseErr != nil {
		return nil, c.fail(ctx, apierror.NewMalformedResponse(status, "reply is not a response envelope", parseErr))
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return nil, c.fail(ctx, apierror.NewApplication(status, msg))
	}

	return env.Data, nil
}

func (c *Client) unauthenticated(ctx context.Context, msg string) error {
	if err := c.session.Clear(); err != nil {
		c.log.Error("failed to clear session after 401", zap.Error(err))
	} else {
		c.log.Info("session cleared after 401")
	}

	c.notifier.Notify(notify.Notification{
		Level:   notify.Warning,
		Title:   "Signed out",
		Message: msg,
	})

	if c.onUnauth != nil {
		c.onUnauth(ctx)
	}

	return apierror.NewUnauthenticated(msg)
}

// rejectedLogin handles a 401 from the login path: the credentials were
// wrong, no session has expired, so OnUnauthenticated is not called.
func (c *Client) rejectedLogin(msg string) error {
	if err := c.session.Clear(); err != nil {
		c.log.Error("failed to clear session after rejected login", zap.Error(err))
	}

	c.notifier.Notify(notify.Notification{
		Level:   notify.Error,
		Title:   "Sign in failed",
		Message: msg,
	})

	return apierror.NewUnauthenticated(msg)
}

// fail notifies the user about err and returns it. A request the caller
// cancelled is returned without a notification: nobody is waiting for it.
func (c *Client) fail(ctx context.Context, err *apierror.Error) error {
	if err.Kind == apierror.Transport && ctx.Err() != nil {
		return err
	}

	c.notifier.Notify(notify.Notification{
		Level:   notify.Error,
		Message: apierror.UserMessage(err),
	})
	return err
}
