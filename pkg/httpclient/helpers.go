package httpclient

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
)

// Get sends a GET request with the given query.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Send(ctx, Request{Method: "GET", Path: path, Query: query})
}

// Post sends body as JSON in a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Send(ctx, Request{Method: "POST", Path: path, Body: body})
}

// Put sends body as JSON in a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Send(ctx, Request{Method: "PUT", Path: path, Body: body})
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Send(ctx, Request{Method: "DELETE", Path: path})
}

// SendAs sends req and decodes the envelope's data into T.
func SendAs[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T

	data, err := c.Send(ctx, req)
	if err != nil {
		return zero, err
	}

	return Decode[T](data)
}

// Decode converts envelope data into T. A shape mismatch is a
// MalformedResponse error.
func Decode[T any](data json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, apierror.NewMalformedResponse(0, "data does not match the expected type", err)
	}
	return out, nil
}
