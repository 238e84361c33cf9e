// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents one registered identity.
//
// The email address is the login key and is UNIQUE across all non-deleted
// users (enforced by an index in the sqlite package). The internal ID (xid)
// is the primary key so that nothing else in the system depends on the email
// staying constant.
//
// SENSITIVE FIELDS:
// Password and PrePassword hold bcrypt hashes, never plaintext. They — along
// with DeletedAt and BirthdayFlag — must never reach an API caller. All of
// them carry `omitempty` so that Sanitize() can clear them and have the JSON
// encoder drop the keys entirely, instead of serialising empty strings.
//
// WHY SOFT DELETE?
// Account deletion sets DeletedAt instead of removing the row. Lookups treat
// a non-nil DeletedAt as "gone", but the data stays recoverable and the email
// uniqueness invariant only applies to live rows.
type User struct {
	ID           string     `json:"userId"              db:"id"`
	Email        string     `json:"useremail"           db:"useremail"`
	Nickname     string     `json:"nickname"            db:"nickname"`
	Password     string     `json:"password,omitempty"  db:"password"` // bcrypt hash
	PrePassword  string     `json:"prePwd,omitempty"    db:"pre_pwd"`  // previous hash, kept on password change
	Thumbnail    string     `json:"thumbnail"           db:"thumbnail"`
	Birthday     *time.Time `json:"birthDay,omitempty"  db:"birthday"`
	BirthdayFlag bool       `json:"birthDayFlag,omitempty" db:"birthday_flag"` // whether the birthday is visible to others
	IsFirst      bool       `json:"isFirst"             db:"is_first"`         // true until the tutorial is completed
	AccessToken  string     `json:"-"                   db:"access_token"`
	RefreshToken string     `json:"-"                   db:"refresh_token"`
	CreatedAt    time.Time  `json:"registeredAt"        db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt"           db:"updated_at"`
	DeletedAt    *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`

	// UserCalendar is the nested calendar envelope the web client reads from
	// GET /auth/all. The calendar subsystem owns its contents; this package
	// only carries the shape.
	UserCalendar *UserCalendar `json:"userCalendarId,omitempty"`
}

// Sanitize strips every field that is never safe to expose to a caller:
// the password hash, the previous password hash, the soft-delete timestamp,
// and the birthday visibility flag.
//
// It mutates the receiver — call it on the copy that is about to be
// serialised, after all persistence work is done.
func (u *User) Sanitize() *User {
	u.Password = ""
	u.PrePassword = ""
	u.DeletedAt = nil
	u.BirthdayFlag = false
	return u
}

// Deleted reports whether the user has been soft-deleted.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}
