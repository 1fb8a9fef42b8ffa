package dataset

import "fmt"

// ValidationReport counts data-quality issues found in the input tables.
// Issues are reported, never corrected: unknown references and rows with
// blank fields stay in the tables and downstream cohort math sees them
// as-is.
type ValidationReport struct {
	DuplicateUsers      int
	DuplicateEvents     int
	DuplicatePayments   int
	EmptyUserFields     int
	EmptyEventFields    int
	EmptyPaymentFields  int
	UnknownEventUsers   int
	UnknownPaymentUsers int
	EventsBeforeSignup  int
}

// Clean reports whether no issues were found.
func (r *ValidationReport) Clean() bool {
	return r.DuplicateUsers == 0 &&
		r.DuplicateEvents == 0 &&
		r.DuplicatePayments == 0 &&
		r.EmptyUserFields == 0 &&
		r.EmptyEventFields == 0 &&
		r.EmptyPaymentFields == 0 &&
		r.UnknownEventUsers == 0 &&
		r.UnknownPaymentUsers == 0 &&
		r.EventsBeforeSignup == 0
}

func (r *ValidationReport) String() string {
	return fmt.Sprintf(
		"duplicate users: %d, duplicate events: %d, duplicate payments: %d, empty user fields: %d, empty event fields: %d, empty payment fields: %d, events from unknown users: %d, payments from unknown users: %d, events before signup: %d",
		r.DuplicateUsers, r.DuplicateEvents, r.DuplicatePayments,
		r.EmptyUserFields, r.EmptyEventFields, r.EmptyPaymentFields,
		r.UnknownEventUsers, r.UnknownPaymentUsers, r.EventsBeforeSignup)
}

// Validate scans the three tables for duplicates, blank required fields and
// broken references. Required fields are the join keys and timestamps; the
// categorical user attributes may be blank, segmentation already skips them.
func Validate(tables *Tables) *ValidationReport {
	report := &ValidationReport{}

	seenUsers := make(map[string]struct{}, len(tables.Users))
	for _, u := range tables.Users {
		if u.ID == "" {
			report.EmptyUserFields++
		}
		if u.SignupDate.IsZero() {
			report.EmptyUserFields++
		}
		if _, ok := seenUsers[u.ID]; ok {
			report.DuplicateUsers++
			continue
		}
		seenUsers[u.ID] = struct{}{}
	}

	signups := tables.SignupDates()

	seenEvents := make(map[Event]struct{}, len(tables.Events))
	unknownEventUsers := NewCohort()
	for _, e := range tables.Events {
		if e.UserID == "" {
			report.EmptyEventFields++
		}
		if e.Name == "" {
			report.EmptyEventFields++
		}
		if e.Time.IsZero() {
			report.EmptyEventFields++
		}
		if _, ok := seenEvents[e]; ok {
			report.DuplicateEvents++
		}
		seenEvents[e] = struct{}{}

		signup, known := signups[e.UserID]
		if !known {
			unknownEventUsers.Add(e.UserID)
			continue
		}
		if e.Time.Before(signup) {
			report.EventsBeforeSignup++
		}
	}
	report.UnknownEventUsers = unknownEventUsers.Len()

	seenPayments := make(map[Payment]struct{}, len(tables.Payments))
	unknownPaymentUsers := NewCohort()
	for _, p := range tables.Payments {
		if p.UserID == "" {
			report.EmptyPaymentFields++
		}
		if p.Date.IsZero() {
			report.EmptyPaymentFields++
		}
		if _, ok := seenPayments[p]; ok {
			report.DuplicatePayments++
		}
		seenPayments[p] = struct{}{}

		if _, known := signups[p.UserID]; !known {
			unknownPaymentUsers.Add(p.UserID)
		}
	}
	report.UnknownPaymentUsers = unknownPaymentUsers.Len()

	return report
}
