// internal/session/session.go
//
// Flint – client-side session.
//
// Context
//   A Session is the per-request bag of values that survives between
//   requests from the same client.  It tracks its own Modified flag so
//   the dispatcher only writes the cookie back when something actually
//   changed.  Flash messages ride inside the session under a reserved
//   key and are consumed on first read.
//
//   Serialization lives in cookiestore.go; this file is transport
//   agnostic.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

// flashKey is the reserved slot flash messages accumulate under.
const flashKey = "_flashes"

// Session is a mutable key/value payload plus a dirty flag.
type Session struct {
	vals     map[string]any
	modified bool
}

// New returns an empty, unmodified Session.
func New() *Session {
	return &Session{vals: make(map[string]any)}
}

// restore rebuilds a Session from decoded cookie values without marking
// it modified.
func restore(vals map[string]any) *Session {
	if vals == nil {
		vals = make(map[string]any)
	}
	return &Session{vals: vals}
}

// Get returns the value under key, or nil.
func (s *Session) Get(key string) any { return s.vals[key] }

// GetString returns the value under key when it is a string.
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.vals[key].(string)
	return v, ok
}

// Set binds value under key and marks the session dirty.
func (s *Session) Set(key string, value any) {
	s.vals[key] = value
	s.modified = true
}

// Delete removes key.  Deleting an absent key is a no-op and does not
// dirty the session.
func (s *Session) Delete(key string) {
	if _, ok := s.vals[key]; !ok {
		return
	}
	delete(s.vals, key)
	s.modified = true
}

// Pop removes and returns the value under key, or nil.
func (s *Session) Pop(key string) any {
	v, ok := s.vals[key]
	if !ok {
		return nil
	}
	delete(s.vals, key)
	s.modified = true
	return v
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool { return s.modified }

// Len reports the number of stored keys.
func (s *Session) Len() int { return len(s.vals) }

//
// flash helpers
//

// AddFlash queues msg for the next flash read.
func (s *Session) AddFlash(msg string) {
	cur := s.flashes()
	s.Set(flashKey, append(cur, msg))
}

// PopFlashes removes and returns all queued flash messages.
func (s *Session) PopFlashes() []string {
	msgs := s.flashes()
	if len(msgs) > 0 {
		s.Pop(flashKey)
	}
	return msgs
}

// flashes normalises the stored slot, which arrives as []any after a
// JSON round-trip but as []string when set in the same process.
func (s *Session) flashes() []string {
	switch v := s.vals[flashKey].(type) {
	case []string:
		return v
	case []any:
		msgs := make([]string, 0, len(v))
		for _, m := range v {
			if str, ok := m.(string); ok {
				msgs = append(msgs, str)
			}
		}
		return msgs
	default:
		return nil
	}
}
