package handlers

import "time"

// dateLayout is the wire format for membership validity windows (§4.1):
// calendar dates, no time-of-day or zone component.
const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
