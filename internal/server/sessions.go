package server

import (
	"container/list"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/job-bot/internal/dispatch"
)

const (
	sessionCookie = "job_bot_session"

	DefaultSessionTTL  = 2 * time.Hour
	DefaultMaxSessions = 10000
)

type sessionEntry struct {
	id       string
	host     string
	session  *dispatch.Session
	lastUsed time.Time
	// claimed is set once the client sends the cookie back.
	claimed bool
}

// sessions hands every browser its own dispatch state, keyed by a cookie. Clients that
// never return the cookie share one session per remote address, so their cooldowns hold.
// Entries idle for longer than ttl, or beyond capacity, are dropped least recently used first.
type sessions struct {
	mu     sync.Mutex
	order  *list.List
	items  map[string]*list.Element
	byHost map[string]*list.Element

	credentials func() dispatch.Credentials
	ttl         time.Duration
	capacity    int
	now         func() time.Time
}

func newSessions(credentials func() dispatch.Credentials, ttl time.Duration, capacity int, now func() time.Time) *sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if capacity <= 0 {
		capacity = DefaultMaxSessions
	}
	return &sessions{
		order:       list.New(),
		items:       make(map[string]*list.Element),
		byHost:      make(map[string]*list.Element),
		credentials: credentials,
		ttl:         ttl,
		capacity:    capacity,
		now:         now,
	}
}

// get returns the caller's session, creating it and setting the cookie when needed.
func (m *sessions) get(w http.ResponseWriter, r *http.Request) *dispatch.Session {
	now := m.now()
	host := clientHost(r)

	m.mu.Lock()
	m.evict(now)

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if el, ok := m.items[cookie.Value]; ok {
			entry := el.Value.(*sessionEntry)
			if !entry.claimed {
				entry.claimed = true
				if m.byHost[entry.host] == el {
					delete(m.byHost, entry.host)
				}
			}
			m.touch(el, now)
			m.mu.Unlock()
			return entry.session
		}
	}

	if el, ok := m.byHost[host]; ok {
		entry := el.Value.(*sessionEntry)
		m.touch(el, now)
		m.mu.Unlock()
		setSessionCookie(w, entry.id)
		return entry.session
	}
	m.mu.Unlock()

	id := uuid.NewString()
	entry := &sessionEntry{
		id:       id,
		host:     host,
		session:  dispatch.NewSession(id, m.credentials()),
		lastUsed: now,
	}

	m.mu.Lock()
	el := m.order.PushFront(entry)
	m.items[id] = el
	m.byHost[host] = el
	m.evict(now)
	m.mu.Unlock()

	setSessionCookie(w, id)

	return entry.session
}

// refresh reloads credentials into every live session after the saved keys change.
func (m *sessions) refresh() {
	creds := m.credentials()

	m.mu.Lock()
	live := make([]*dispatch.Session, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		live = append(live, el.Value.(*sessionEntry).session)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.SetCredentials(creds)
	}
}

func (m *sessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *sessions) touch(el *list.Element, now time.Time) {
	el.Value.(*sessionEntry).lastUsed = now
	m.order.MoveToFront(el)
}

// evict drops idle and overflow entries from the back of the list. Caller holds mu.
func (m *sessions) evict(now time.Time) {
	for el := m.order.Back(); el != nil; el = m.order.Back() {
		entry := el.Value.(*sessionEntry)
		if m.order.Len() <= m.capacity && now.Sub(entry.lastUsed) < m.ttl {
			return
		}
		m.order.Remove(el)
		delete(m.items, entry.id)
		if m.byHost[entry.host] == el {
			delete(m.byHost, entry.host)
		}
	}
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
