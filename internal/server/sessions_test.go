package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-bot/internal/dispatch"
)

type sessionClock struct {
	now time.Time
}

func (c *sessionClock) Now() time.Time { return c.now }

func newTestSessions(ttl time.Duration, capacity int, clk *sessionClock) *sessions {
	return newSessions(func() dispatch.Credentials { return dispatch.Credentials{"a": "ka"} }, ttl, capacity, clk.Now)
}

// visit performs one request from addr, optionally presenting cookie, and returns the
// session plus the cookie value the response set (empty when none).
func visit(m *sessions, addr, cookie string) (*dispatch.Session, string) {
	r := httptest.NewRequest(http.MethodGet, "/api/providers", nil)
	r.RemoteAddr = addr
	if cookie != "" {
		r.AddCookie(&http.Cookie{Name: sessionCookie, Value: cookie})
	}

	w := httptest.NewRecorder()
	s := m.get(w, r)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return s, c.Value
		}
	}
	return s, ""
}

func TestSessionsCookielessClientSharesOneSession(t *testing.T) {
	m := newTestSessions(time.Hour, 100, &sessionClock{now: time.Unix(1000, 0)})

	first, id := visit(m, "10.0.0.1:5000", "")
	require.NotEmpty(t, id)

	for i := 0; i < 1000; i++ {
		s, _ := visit(m, "10.0.0.1:5001", "")
		require.Same(t, first, s)
	}
	assert.Equal(t, 1, m.count())

	other, _ := visit(m, "10.0.0.2:5000", "")
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, m.count())
}

func TestSessionsCookieClaimsSession(t *testing.T) {
	m := newTestSessions(time.Hour, 100, &sessionClock{now: time.Unix(1000, 0)})

	first, id := visit(m, "10.0.0.1:5000", "")
	again, set := visit(m, "10.0.0.1:5000", id)
	assert.Same(t, first, again)
	assert.Empty(t, set, "known cookie is not reissued")

	// A second browser behind the same address gets its own state once the first kept its cookie.
	second, secondID := visit(m, "10.0.0.1:6000", "")
	assert.NotSame(t, first, second)
	assert.NotEqual(t, id, secondID)
}

func TestSessionsEvictIdle(t *testing.T) {
	clk := &sessionClock{now: time.Unix(1000, 0)}
	m := newTestSessions(time.Hour, 100, clk)

	first, id := visit(m, "10.0.0.1:5000", "")
	visit(m, "10.0.0.1:5000", id)

	clk.now = clk.now.Add(30 * time.Minute)
	kept, _ := visit(m, "10.0.0.1:5000", id)
	assert.Same(t, first, kept, "activity extends the session")

	clk.now = clk.now.Add(time.Hour)
	fresh, newID := visit(m, "10.0.0.1:5000", id)
	assert.NotSame(t, first, fresh)
	assert.NotEqual(t, id, newID)
	assert.Equal(t, 1, m.count())
}

func TestSessionsCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	m := newTestSessions(time.Hour, 2, &sessionClock{now: time.Unix(1000, 0)})

	a, idA := visit(m, "10.0.0.1:1", "")
	_, idB := visit(m, "10.0.0.2:1", "")
	visit(m, "10.0.0.1:1", idA)
	visit(m, "10.0.0.3:1", "")

	assert.Equal(t, 2, m.count())

	s, _ := visit(m, "10.0.0.1:1", idA)
	assert.Same(t, a, s)

	_, reissued := visit(m, "10.0.0.2:1", idB)
	assert.NotEqual(t, idB, reissued, "least recently used session was dropped")
}

func TestSessionsRefreshUpdatesLiveSessions(t *testing.T) {
	keys := dispatch.Credentials{"a": "ka"}
	m := newSessions(func() dispatch.Credentials { return keys }, time.Hour, 10, (&sessionClock{now: time.Unix(1000, 0)}).Now)

	s, _ := visit(m, "10.0.0.1:1", "")
	keys = dispatch.Credentials{"a": "ka", "b": "kb"}
	m.refresh()

	assert.Equal(t, "kb", s.Credentials().Get("b"))
}
