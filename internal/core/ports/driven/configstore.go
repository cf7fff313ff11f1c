package driven

// ConfigStore provides persistent key-value configuration storage.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, empty if missing.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 if missing.
	GetInt(key string) int

	// GetBool retrieves a boolean value, false if missing.
	GetBool(key string) bool

	// Set stores a configuration value and persists it.
	Set(key string, value any) error

	// Delete removes a configuration value.
	Delete(key string) error
}
