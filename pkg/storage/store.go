// Package storage persists the console's client-side state: the active base-URL
// override, the bearer token, and saved requests.
package storage

// Well-known keys.
const (
	KeyBaseURL     = "base_url"
	KeyToken       = "token"
	KeyTokenExpiry = "token_expiry"
)

// Store is a durable string key/value store. Implementations must be safe for
// concurrent use and return the latest written value from Get.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool)
	// Set stores value under key.
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
