package dataset

import (
	"sort"
	"time"
)

// User is a single row of the users table.
type User struct {
	ID         string
	SignupDate time.Time
	Country    string
	Device     string
	Source     string
}

// Event is a single row of the events table. Users may have any number of
// events, including zero.
type Event struct {
	UserID string
	Name   string
	Time   time.Time
}

// Payment is a single row of the payments table. A user present here at
// least once counts as upgraded.
type Payment struct {
	UserID string
	Date   time.Time
}

// Tables holds the three input tables for one batch run. It is treated as an
// immutable snapshot: analysis functions read it, nothing mutates it.
type Tables struct {
	Users    []User
	Events   []Event
	Payments []Payment
}

// SignupDates returns a lookup from user ID to signup date.
func (t *Tables) SignupDates() map[string]time.Time {
	signups := make(map[string]time.Time, len(t.Users))
	for _, u := range t.Users {
		signups[u.ID] = u.SignupDate
	}
	return signups
}

// EventsByUser groups the events table by user ID.
func (t *Tables) EventsByUser() map[string][]Event {
	grouped := make(map[string][]Event)
	for _, e := range t.Events {
		grouped[e.UserID] = append(grouped[e.UserID], e)
	}
	return grouped
}

// Cohort is a set of user IDs satisfying some predicate. All funnel and
// segmentation math is set intersection and cardinality over cohorts.
type Cohort map[string]struct{}

func NewCohort() Cohort {
	return make(Cohort)
}

func (c Cohort) Add(userID string) {
	c[userID] = struct{}{}
}

func (c Cohort) Contains(userID string) bool {
	_, ok := c[userID]
	return ok
}

func (c Cohort) Len() int {
	return len(c)
}

// Intersect returns the members of c that are also in other.
func (c Cohort) Intersect(other Cohort) Cohort {
	small, large := c, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := NewCohort()
	for id := range small {
		if large.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// IDs returns the members in sorted order, for deterministic output.
func (c Cohort) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SignedUp is the cohort of every user in the users table.
func (t *Tables) SignedUp() Cohort {
	c := NewCohort()
	for _, u := range t.Users {
		c.Add(u.ID)
	}
	return c
}

// UsersWithEvent is the cohort of users with at least one event of the given
// name.
func (t *Tables) UsersWithEvent(name string) Cohort {
	c := NewCohort()
	for _, e := range t.Events {
		if e.Name == name {
			c.Add(e.UserID)
		}
	}
	return c
}

// Upgraded is the cohort of users with at least one payment.
func (t *Tables) Upgraded() Cohort {
	c := NewCohort()
	for _, p := range t.Payments {
		c.Add(p.UserID)
	}
	return c
}
