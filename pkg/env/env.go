package env

import "os"

// Get reads key from the process environment, returning fallback when the
// variable is unset or empty. Empty counts as unset so that blank entries
// in a .env file do not silently override defaults.
func Get(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	return v
}
