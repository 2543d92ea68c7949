package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginData is the object form of a login reply's data. A bare JSON string
// is accepted as the token too.
type loginData struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

// Login exchanges credentials for a bearer token and stores it in the
// session. The login path is always sent without Authorization.
func (c *Client) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	if username == "" || password == "" {
		return nil, c.fail(ctx, apierror.NewInvalidConfiguration("username and password are required"))
	}

	data, err := c.Send(ctx, Request{
		Method: "POST",
		Path:   c.loginPath,
		Body:   Credentials{Username: username, Password: password},
	})
	if err != nil {
		return nil, err
	}

	tok, err := parseLoginData(data, c.now())
	if err != nil {
		return nil, c.fail(ctx, apierror.NewMalformedResponse(200, "login reply has no token", err))
	}

	if err := c.session.Save(tok); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	c.log.Info("logged in", zap.String("username", username))
	return tok, nil
}

// Logout forgets the stored token.
func (c *Client) Logout() error {
	if err := c.session.Clear(); err != nil {
		return err
	}
	c.log.Info("logged out")
	return nil
}

func parseLoginData(data json.RawMessage, now time.Time) (*oauth2.Token, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("data is empty")
	}

	if trimmed[0] == '"' {
		var access string
		if err := json.Unmarshal(trimmed, &access); err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		if access == "" {
			return nil, fmt.Errorf("token is empty")
		}
		return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
	}

	var ld loginData
	if err := json.Unmarshal(trimmed, &ld); err != nil {
		return nil, fmt.Errorf("failed to decode login data: %w", err)
	}

	access := ld.Token
	if access == "" {
		access = ld.AccessToken
	}
	if access == "" {
		return nil, fmt.Errorf("token is empty")
	}

	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if ld.ExpiresIn > 0 {
		tok.Expiry = now.Add(time.Duration(ld.ExpiresIn) * time.Second)
	}
	return tok, nil
}
