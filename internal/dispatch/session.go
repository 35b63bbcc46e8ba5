package dispatch

import (
	"sort"
	"sync"
	"time"
)

// Session is the caller-owned dispatch state: cooldowns, the recently rate-limited set
// shown to the user, and the credentials in effect. Requests of one session are
// serialized; separate sessions never share state.
type Session struct {
	ID string

	// call serializes Invoke; mu guards the fields below and is never held across a vendor call.
	call sync.Mutex

	mu          sync.Mutex
	cooldowns   *Cooldowns
	limited     map[string]struct{}
	credentials Credentials
}

func NewSession(id string, creds Credentials) *Session {
	if creds == nil {
		creds = Credentials{}
	}
	return &Session{
		ID:          id,
		cooldowns:   NewCooldowns(),
		limited:     make(map[string]struct{}),
		credentials: creds,
	}
}

func (s *Session) SetCredentials(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if creds == nil {
		creds = Credentials{}
	}
	s.credentials = creds
}

func (s *Session) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentials.Merge(nil)
}

// RecentlyLimited returns the providers that hit a rate limit and are still cooling down.
func (s *Session) RecentlyLimited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.limited))
	for id := range s.limited {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CooldownUntil reports the cooldown expiry of id, if any, as of now.
func (s *Session) CooldownUntil(id string, now time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldowns.Until(id)
	if !ok || !until.After(now) {
		return time.Time{}, false
	}
	return until, true
}

// snapshot expires stale cooldowns and returns the credentials plus the ids still cooling down.
func (s *Session) snapshot(now time.Time) (released []string, creds Credentials, cooling map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	released = s.cooldowns.Expire(now)
	s.limited = make(map[string]struct{}, len(s.cooldowns.until))
	cooling = make(map[string]struct{}, len(s.cooldowns.until))
	for _, id := range s.cooldowns.IDs() {
		s.limited[id] = struct{}{}
		cooling[id] = struct{}{}
	}

	return released, s.credentials.Merge(nil), cooling
}

// markLimited records a cooldown for id and returns the resulting expiry.
func (s *Session) markLimited(id string, until time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limited[id] = struct{}{}
	return s.cooldowns.Record(id, until)
}

func (s *Session) coolingIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldowns.IDs()
}
