package models

import "time"

type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleAdmin   UserRole = "admin"
)

type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
	AuthProviderHybrid AuthProvider = "hybrid"
)

// User is an account. Email is stored lowercased and is unique. PasswordHash
// is nil for accounts created through Google and for every projection that
// was not loaded for password verification.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Name         string
	Role         UserRole
	Picture      *string
	AuthProvider AuthProvider
	GoogleID     *string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserUpdate lists the fields to overwrite; nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	Picture      *string
	GoogleID     *string
	AuthProvider *AuthProvider
	LastLogin    *time.Time
}

func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Picture == nil && u.GoogleID == nil && u.AuthProvider == nil && u.LastLogin == nil
}

// Apply copies the set fields onto user.
func (u UserUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Picture != nil {
		user.Picture = u.Picture
	}
	if u.GoogleID != nil {
		user.GoogleID = u.GoogleID
	}
	if u.AuthProvider != nil {
		user.AuthProvider = *u.AuthProvider
	}
	if u.LastLogin != nil {
		user.LastLogin = u.LastLogin
	}
}

// Session is the single cookie-backed session a user may hold. Writing a new
// session for the same user replaces the previous one.
type Session struct {
	UserID       string
	SessionToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Valid reports whether the session is still usable at now. Both instants are
// compared in UTC so stores that hand back zone-less timestamps behave the
// same as ones that keep the offset.
func (s Session) Valid(now time.Time) bool {
	return now.UTC().Before(s.ExpiresAt.UTC())
}
