package model

import "time"

// The calendar structs below exist so that GET /auth/all can return the
// nested payload shape the web client expects:
//
//	user.userCalendarId.socialEvents
//	user.userCalendarId.groupCalendar[].groupEvents
//
// The calendar and feed subsystems own the contents; the identity service
// only attaches the envelope (empty when no collaborator has filled it).

// UserCalendar is the per-user calendar aggregate root.
type UserCalendar struct {
	ID             string          `json:"userCalendarId"`
	SocialEvents   []SocialEvent   `json:"socialEvents"`
	GroupCalendars []GroupCalendar `json:"groupCalendar"`
}

// GroupCalendar is one shared calendar the user participates in.
type GroupCalendar struct {
	ID          string       `json:"calendarId"`
	Title       string       `json:"title"`
	GroupEvents []GroupEvent `json:"groupEvents"`
}

// GroupEvent is one event on a group calendar. The field set mirrors what
// the client flattens into its group-event store on first render.
type GroupEvent struct {
	ID         string    `json:"groupEventId"`
	Title      string    `json:"title"`
	Member     []string  `json:"member"`
	Pinned     bool      `json:"pinned"`
	Alerts     *int      `json:"alerts"`
	Attachment *string   `json:"attachment"`
	Color      string    `json:"color"`
	StartAt    time.Time `json:"startAt"`
	EndAt      time.Time `json:"endAt"`
}

// SocialEvent is one imported social-feed event on the user's own calendar.
type SocialEvent struct {
	ID      string    `json:"socialEventId"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

// EmptyUserCalendar returns the envelope GET /auth/all attaches when the
// calendar collaborators have not populated anything. The slices are empty
// (not nil) so they serialise as [] rather than null.
func EmptyUserCalendar(id string) *UserCalendar {
	return &UserCalendar{
		ID:             id,
		SocialEvents:   []SocialEvent{},
		GroupCalendars: []GroupCalendar{},
	}
}
