package business

import (
	"time"
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// HoursSpan is one opening interval within a day, in minutes from midnight
// local time. A span whose Close is less than or equal to its Open crosses
// midnight into the following day (e.g. 22:00-02:00).
type HoursSpan struct {
	OpenMinutes  int `json:"open"`
	CloseMinutes int `json:"close"`
}

// WeeklyHours maps a weekday to its opening spans. Days with no entry are
// closed. time.Weekday (Sunday=0) is used as the key so a parsed time.Time
// indexes directly.
type WeeklyHours map[time.Weekday][]HoursSpan

// Business represents a directory listing owned by the business-record
// collaborator. The engine never writes these; it only reads them out of the
// spatial store and derives per-query fields.
type Business struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Categories  []string          `json:"categories"`
	Amenities   []string          `json:"amenities,omitempty"`
	PriceRange  int               `json:"price_range,omitempty"`
	Rating      float64           `json:"rating"`
	ReviewCount int               `json:"review_count"`
	Popularity  float64           `json:"popularity"`
	Location    Coordinates       `json:"location"`
	Timezone    string            `json:"timezone,omitempty"`
	Hours       WeeklyHours       `json:"hours,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsOpenAt reports whether the business is open at t, evaluated in the
// business's declared timezone. Overnight spans are attributed to the day they
// open on, so 22:00-02:00 on Friday covers Saturday 01:00.
func (b *Business) IsOpenAt(t time.Time) bool {
	if len(b.Hours) == 0 {
		return false
	}

	local := t
	if b.Timezone != "" {
		if loc, err := time.LoadLocation(b.Timezone); err == nil {
			local = t.In(loc)
		}
	}

	minutes := local.Hour()*60 + local.Minute()

	// Spans opening today.
	for _, span := range b.Hours[local.Weekday()] {
		if span.CloseMinutes > span.OpenMinutes {
			if minutes >= span.OpenMinutes && minutes < span.CloseMinutes {
				return true
			}
		} else if minutes >= span.OpenMinutes {
			// Overnight span, still before midnight.
			return true
		}
	}

	// Overnight spans that opened yesterday and spill into today.
	yesterday := (local.Weekday() + 6) % 7
	for _, span := range b.Hours[yesterday] {
		if span.CloseMinutes <= span.OpenMinutes && minutes < span.CloseMinutes {
			return true
		}
	}

	return false
}
