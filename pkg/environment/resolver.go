package environment

import (
	"fmt"
	"sync"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/notify"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"go.uber.org/zap"
)

// Resolver owns the active base URL. It is safe for concurrent use; SetBaseURL
// and Reset are the only writers of the persisted override.
type Resolver struct {
	mu       sync.RWMutex
	registry *Registry
	store    storage.Store
	hostname string
	notifier notify.Notifier
	log      *zap.Logger
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Registry *Registry
	Store    storage.Store
	// Hostname drives automatic detection when nothing is persisted.
	Hostname string
	Notifier notify.Notifier
	Logger   *zap.Logger
}

func NewResolver(opts ResolverOptions) *Resolver {
	r := &Resolver{
		registry: opts.Registry,
		store:    opts.Store,
		hostname: opts.Hostname,
		notifier: opts.Notifier,
		log:      opts.Logger,
	}

	if r.registry == nil {
		r.registry = NewRegistry(DefaultEnvironments()...)
	}
	if r.store == nil {
		r.store = storage.NewMemoryStore()
	}
	if r.notifier == nil {
		r.notifier = notify.Discard
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}

	return r
}

// Registry returns the known environments.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ActiveBaseURL returns the base URL requests should go to. It never fails:
// an unusable persisted value falls back to hostname detection.
func (r *Resolver) ActiveBaseURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.activeLocked()
}

// Active returns the environment behind the active base URL. URLs that do not
// belong to a known environment are reported as CUSTOM.
func (r *Resolver) Active() Environment {
	u := r.ActiveBaseURL()
	if env, ok := r.registry.MatchURL(u); ok {
		return env
	}
	return Environment{Key: Custom, Name: "Custom", URL: u}
}

// Detected returns the environment chosen from the hostname alone.
func (r *Resolver) Detected() Environment {
	for _, key := range []Key{Detect(r.hostname), Prod} {
		if env, ok := r.registry.Lookup(string(key)); ok {
			return env
		}
	}

	for _, env := range DefaultEnvironments() {
		if env.Key == Prod {
			return env
		}
	}
	return Environment{}
}

func (r *Resolver) activeLocked() string {
	if override, ok := r.store.Get(storage.KeyBaseURL); ok && ValidBaseURL(override) {
		return override
	}
	return r.Detected().URL
}

// SetBaseURL switches to a known environment (by key) or to a custom URL and
// persists the choice. Anything else is rejected with an InvalidConfiguration
// error and the active URL stays as it was.
func (r *Resolver) SetBaseURL(keyOrURL string) (Environment, error) {
	target, err := r.resolveTarget(keyOrURL)
	if err != nil {
		r.log.Warn("rejected base url", zap.String("input", keyOrURL), zap.Error(err))
		r.notifier.Notify(notify.Notification{
			Level:   notify.Error,
			Title:   "Environment",
			Message: err.Message,
		})
		return Environment{}, err
	}

	r.mu.Lock()
	setErr := r.store.Set(storage.KeyBaseURL, target.URL)
	r.mu.Unlock()

	if setErr != nil {
		r.log.Error("failed to persist base url", zap.String("url", target.URL), zap.Error(setErr))
		r.notifier.Notify(notify.Notification{
			Level:   notify.Error,
			Title:   "Environment",
			Message: fmt.Sprintf("could not save %s", target.URL),
		})
		return Environment{}, fmt.Errorf("failed to persist base url: %w", setErr)
	}

	r.log.Info("switched environment", zap.String("key", string(target.Key)), zap.String("url", target.URL))
	r.notifier.Notify(notify.Notification{
		Level:   notify.Success,
		Title:   "Environment",
		Message: fmt.Sprintf("switched to %s (%s)", target.Name, target.URL),
	})

	return target, nil
}

// Reset forgets the persisted override so the hostname decides again.
func (r *Resolver) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Delete(storage.KeyBaseURL); err != nil {
		return fmt.Errorf("failed to clear base url: %w", err)
	}

	r.log.Info("cleared base url override", zap.String("url", r.activeLocked()))
	return nil
}

func (r *Resolver) resolveTarget(keyOrURL string) (Environment, *apierror.Error) {
	if keyOrURL == "" {
		return Environment{}, apierror.NewInvalidConfiguration("environment key or URL is required")
	}

	if env, ok := r.registry.Lookup(keyOrURL); ok {
		return env, nil
	}

	if ValidBaseURL(keyOrURL) {
		if env, ok := r.registry.MatchURL(keyOrURL); ok {
			env.URL = keyOrURL
			return env, nil
		}
		return Environment{Key: Custom, Name: "Custom", URL: keyOrURL}, nil
	}

	return Environment{}, apierror.NewInvalidConfiguration(
		fmt.Sprintf("%q is neither a known environment nor a valid http(s) URL", keyOrURL))
}
