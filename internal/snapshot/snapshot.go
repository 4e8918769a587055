// internal/snapshot/snapshot.go
package snapshot

// Store persists JSON projections of client state between sessions. It never
// mutates live state; stores write projections after each mutation and read
// them back once at startup.
type Store interface {
	// Save serializes v under key, replacing any previous value.
	Save(key string, v interface{}) error
	// Load reads the value stored under key into v. It returns false with a
	// nil error when the key is absent.
	Load(key string, v interface{}) (bool, error)
	// Delete removes the value stored under key. Deleting an absent key is
	// not an error.
	Delete(key string) error
}
