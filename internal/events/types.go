package events

import "time"

// Event type constants following CloudEvents naming conventions
// Format: <reverse-dns>.<resource>.<action>.<version>
const (
	// Event source.
	EventSourceLookbackAPI = "io.lookback.api"

	UserCreatedType        = "io.lookback.user.created.v1"
	CalendarListStoredType = "io.lookback.calendar_list.stored.v1"
)

// UserCreated is the data of a UserCreatedType event.
type UserCreated struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	GoogleID string `json:"google_id"`
}

// CalendarListStored is the data of a CalendarListStoredType event.
type CalendarListStored struct {
	Email     string    `json:"email"`
	Calendars int       `json:"calendars"`
	FetchedAt time.Time `json:"fetched_at"`
}
