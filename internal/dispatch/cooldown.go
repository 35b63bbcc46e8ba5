package dispatch

import (
	"sort"
	"time"
)

// Cooldowns records when rate-limited providers become eligible again.
// It is not safe for concurrent use; Session guards it.
type Cooldowns struct {
	until map[string]time.Time
}

func NewCooldowns() *Cooldowns {
	return &Cooldowns{until: make(map[string]time.Time)}
}

// Expire drops every entry whose expiry is at or before now and returns the released ids.
func (c *Cooldowns) Expire(now time.Time) []string {
	var released []string
	for id, until := range c.until {
		if !until.After(now) {
			delete(c.until, id)
			released = append(released, id)
		}
	}
	sort.Strings(released)
	return released
}

// Active reports whether id is still cooling down. Callers expire first.
func (c *Cooldowns) Active(id string) bool {
	_, ok := c.until[id]
	return ok
}

// Record extends the cooldown of id to until. An existing later expiry is kept.
func (c *Cooldowns) Record(id string, until time.Time) time.Time {
	if current, ok := c.until[id]; ok && current.After(until) {
		return current
	}
	c.until[id] = until
	return until
}

func (c *Cooldowns) Until(id string) (time.Time, bool) {
	until, ok := c.until[id]
	return until, ok
}

func (c *Cooldowns) IDs() []string {
	ids := make([]string, 0, len(c.until))
	for id := range c.until {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
