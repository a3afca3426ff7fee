package availability

import "time"

// Cache answers availability questions in O(1) from previously fetched data.
// It never performs I/O: fetching is triggered only by explicit range
// requests from the flow orchestrator. One cache belongs to exactly one
// orchestrator, so the cache itself carries no locking.
type Cache struct {
	days Availability
}

func NewCache() *Cache {
	return &Cache{
		days: Availability{},
	}
}

// Upsert merges a freshly fetched range into the cache. Replacement is a
// full per-day overwrite so the cache never mixes two fetches for the same
// day.
func (c *Cache) Upsert(batch Availability) {
	for day, slots := range batch {
		c.days[day] = slots
	}
}

// SlotsFor returns the cached sequence for the day, or an empty sequence if
// the day was never checked or is known to have no availability.
func (c *Cache) SlotsFor(day Day) []time.Time {
	return c.days[day]
}

func (c *Cache) HasAvailability(day Day) bool {
	return len(c.days[day]) > 0
}

// Checked reports whether the day was covered by a previous fetch,
// distinguishing known-empty from never-checked.
func (c *Cache) Checked(day Day) bool {
	_, ok := c.days[day]

	return ok
}
