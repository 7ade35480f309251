package domain

import "time"

// TaskFilter narrows a user's task list. Zero value means no filtering.
// DateFrom is an inclusive lower bound on created_at; DateTo is an
// exclusive upper bound (callers pass the start of the day after the
// requested end date, so a whole calendar day is covered).
type TaskFilter struct {
	Query    string
	DateFrom *time.Time
	DateTo   *time.Time
}
