// Package environment knows which backends the console can talk to and which
// one is active.
//
// The active base URL is, in order of priority:
//
//  1. an override persisted by a previous SetBaseURL call;
//  2. the URL of the environment detected from the hostname (see Detect).
package environment

import (
	"net"
	"net/url"
	"sort"
	"strings"
)

// Key names a backend environment.
type Key string

const (
	Local  Key = "LOCAL"
	Test   Key = "TEST"
	Test2  Key = "TEST2"
	Prod   Key = "PROD"
	Custom Key = "CUSTOM"
)

// Environment is a named backend target.
type Environment struct {
	Key  Key
	Name string
	URL  string
}

// Registry is the fixed set of known environments.
type Registry struct {
	envs map[Key]Environment
}

// DefaultEnvironments are the built-in backends.
func DefaultEnvironments() []Environment {
	return []Environment{
		{Key: Local, Name: "Local development", URL: "http://localhost:8080"},
		{Key: Test, Name: "Test", URL: "https://test-api.qtsbackend.com"},
		{Key: Test2, Name: "Test 2", URL: "https://test2-api.qtsbackend.com"},
		{Key: Prod, Name: "Production", URL: "https://api.qtsbackend.com"},
	}
}

// NewRegistry builds a registry from envs. Later entries with the same key
// replace earlier ones, which is how configuration overrides the defaults.
func NewRegistry(envs ...Environment) *Registry {
	r := &Registry{envs: make(map[Key]Environment, len(envs))}
	for _, env := range envs {
		env.Key = Key(strings.ToUpper(string(env.Key)))
		if env.Name == "" {
			env.Name = string(env.Key)
		}
		r.envs[env.Key] = env
	}
	return r
}

// Lookup finds an environment by key, ignoring case.
func (r *Registry) Lookup(key string) (Environment, bool) {
	env, ok := r.envs[Key(strings.ToUpper(strings.TrimSpace(key)))]
	return env, ok
}

// MatchURL returns the known environment whose URL equals u. When several
// keys share a URL the first in key order wins.
func (r *Registry) MatchURL(u string) (Environment, bool) {
	want := normalizeURL(u)
	for _, env := range r.List() {
		if normalizeURL(env.URL) == want {
			return env, true
		}
	}
	return Environment{}, false
}

// List returns the known environments sorted by key.
func (r *Registry) List() []Environment {
	out := make([]Environment, 0, len(r.envs))
	for _, env := range r.envs {
		out = append(out, env)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Detect maps a hostname to an environment: loopback hosts are LOCAL, hosts
// containing "test" are TEST, everything else is PROD.
func Detect(hostname string) Key {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if isLoopback(host) {
		return Local
	}
	if strings.Contains(host, "test") {
		return Test
	}
	return Prod
}

func isLoopback(host string) bool {
	if host == "" || host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && (ip.IsLoopback() || ip.IsUnspecified())
}

// ValidBaseURL reports whether raw is an absolute http(s) URL with a host
// and no query, fragment or credentials.
func ValidBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Hostname() == "" {
		return false
	}
	return u.RawQuery == "" && u.Fragment == "" && u.User == nil && !u.ForceQuery
}

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(u), "/"))
}
