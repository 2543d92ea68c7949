package storage

// Request is a saved console call in YAML form. Path is relative to the
// active base URL, so the same file runs against every environment.
type Request struct {
	Name    string            `yaml:"name"`              // Unique name for the request
	Method  string            `yaml:"method"`            // HTTP method (GET, POST, etc.)
	Path    string            `yaml:"path"`              // Backend path (can contain variables)
	Headers map[string]string `yaml:"headers,omitempty"` // Extra HTTP headers
	Query   map[string]string `yaml:"query,omitempty"`   // Query parameters
	Body    interface{}       `yaml:"body,omitempty"`    // Request body (JSON or string)
}
