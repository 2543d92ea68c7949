package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Request is one call against the active backend.
type Request struct {
	Method string
	// Path is relative to the active base URL, e.g. "/product/list".
	Path  string
	Query url.Values
	// Headers are extra headers. Authorization is managed by the client and
	// ignored here.
	Headers map[string]string
	// Body is sent as JSON. json.RawMessage and []byte are sent as-is.
	Body interface{}
}

func (r Request) method() string {
	if r.Method == "" {
		return "GET"
	}
	return strings.ToUpper(r.Method)
}

// buildURL joins the base URL and the request path, keeping any query
// already present in the path.
func buildURL(baseURL string, r Request) (string, error) {
	path := r.Path
	rawQuery := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, rawQuery = path[:i], path[i+1:]
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to build url: %w", err)
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("invalid query in path: %w", err)
	}
	for k, vs := range r.Query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func encodeBody(body interface{}) (io.Reader, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.NewReader(v), nil
	case []byte:
		return bytes.NewReader(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// whitelist holds the paths that never carry an Authorization header.
// Entries ending in "/*" match every path below them.
type whitelist struct {
	exact    map[string]struct{}
	prefixes []string
}

func newWhitelist(paths ...string) *whitelist {
	w := &whitelist{exact: make(map[string]struct{})}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/*") {
			w.prefixes = append(w.prefixes, normalizePath(strings.TrimSuffix(p, "*")))
			continue
		}
		w.exact[normalizePath(p)] = struct{}{}
	}
	return w
}

func (w *whitelist) contains(path string) bool {
	p := normalizePath(path)
	if _, ok := w.exact[p]; ok {
		return true
	}
	for _, prefix := range w.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// normalizePath strips the query, forces a leading slash and drops the
// trailing one, so "/login/", "login" and "/login?x=1" compare equal.
func normalizePath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	p = "/" + strings.Trim(p, "/")
	return p
}
