package client

import (
	"sync"

	"github.com/togather-app/togather/internal/model"
)

// The stores below are the view layer's state containers. Each one owns a
// single piece of state behind a narrow mutation contract — callers get the
// named setters and getters defined here, nothing else. No package-level
// variables: every consumer receives the store it needs explicitly.

// UserInfoStore holds the signed-in user's profile as last fetched from the
// server.
type UserInfoStore struct {
	mu   sync.RWMutex
	user *model.User
}

// SetUserInfo replaces the stored profile.
func (s *UserInfoStore) SetUserInfo(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// UserInfo returns the stored profile, or nil before the first fetch.
func (s *UserInfoStore) UserInfo() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// NowCalendarStore holds the name of the calendar the view is currently
// showing. "All" is the merged view across every calendar.
type NowCalendarStore struct {
	mu   sync.RWMutex
	name string
}

// SetNowCalendar switches the current calendar view.
func (s *NowCalendarStore) SetNowCalendar(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// NowCalendar returns the currently selected calendar name.
func (s *NowCalendarStore) NowCalendar() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// GroupEventStore holds the group events, flattened across all of the user's
// group calendars.
type GroupEventStore struct {
	mu     sync.RWMutex
	events []model.GroupEvent
}

// SetGroupEvents replaces the stored events.
func (s *GroupEventStore) SetGroupEvents(events []model.GroupEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// GroupEvents returns the stored events.
func (s *GroupEventStore) GroupEvents() []model.GroupEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

// SocialEventStore holds the user's imported social-feed events.
type SocialEventStore struct {
	mu     sync.RWMutex
	events []model.SocialEvent
}

// SetSocialEvents replaces the stored events.
func (s *SocialEventStore) SetSocialEvents(events []model.SocialEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

// SocialEvents returns the stored events.
func (s *SocialEventStore) SocialEvents() []model.SocialEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events
}

// Stores bundles the view-layer state containers so the bootstrap flow can
// fill them in one pass. Each field is still its own component — consumers
// take the individual store, not the bundle.
type Stores struct {
	UserInfo     *UserInfoStore
	NowCalendar  *NowCalendarStore
	GroupEvents  *GroupEventStore
	SocialEvents *SocialEventStore
}

// NewStores returns an empty set of stores.
func NewStores() *Stores {
	return &Stores{
		UserInfo:     &UserInfoStore{},
		NowCalendar:  &NowCalendarStore{},
		GroupEvents:  &GroupEventStore{},
		SocialEvents: &SocialEventStore{},
	}
}
