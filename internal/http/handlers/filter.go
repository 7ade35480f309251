package handlers

import (
	"time"

	"todoweb/internal/domain"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// rawFilter echoes the submitted filter values back into the search form.
type rawFilter struct {
	Query    string
	DateFrom string
	DateTo   string
}

// parseTaskFilter reads query, date_from and date_to from the query string.
// Dates are whole calendar days against created_at: date_from is the start
// of that day, date_to covers through the end of its day (exclusive bound on
// the next midnight). Unparseable dates are ignored rather than rejected, so
// an inverted range simply matches nothing.
func parseTaskFilter(c *gin.Context) (domain.TaskFilter, rawFilter) {
	raw := rawFilter{
		Query:    c.Query("query"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	}

	f := domain.TaskFilter{Query: raw.Query}

	if raw.DateFrom != "" {
		if d, err := time.ParseInLocation(dateLayout, raw.DateFrom, time.UTC); err == nil {
			f.DateFrom = &d
		}
	}
	if raw.DateTo != "" {
		if d, err := time.ParseInLocation(dateLayout, raw.DateTo, time.UTC); err == nil {
			end := d.AddDate(0, 0, 1)
			f.DateTo = &end
		}
	}

	return f, raw
}
