package env

import "os"

// Get reads an environment variable, treating an empty value the same as
// an unset one.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
