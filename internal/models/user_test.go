package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionValid(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	live := Session{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, live.Valid(now))

	expired := Session{ExpiresAt: now.Add(-time.Second)}
	assert.False(t, expired.Valid(now))

	edge := Session{ExpiresAt: now}
	assert.False(t, edge.Valid(now))
}

func TestSessionValidAcrossZones(t *testing.T) {
	tz := time.FixedZone("UTC-6", -6*3600)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	// 07:00 in UTC-6 is 13:00 UTC, one hour after now.
	s := Session{ExpiresAt: time.Date(2026, 1, 10, 7, 0, 0, 0, tz)}
	assert.True(t, s.Valid(now))
	assert.True(t, s.Valid(now.In(tz)))
}

func TestUserUpdateApply(t *testing.T) {
	name := "New"
	picture := "https://example.com/p.png"
	provider := AuthProviderHybrid
	u := User{Name: "Old", AuthProvider: AuthProviderEmail, Role: UserRoleStudent}

	UserUpdate{Name: &name, Picture: &picture, AuthProvider: &provider}.Apply(&u)

	assert.Equal(t, "New", u.Name)
	assert.Equal(t, picture, *u.Picture)
	assert.Equal(t, AuthProviderHybrid, u.AuthProvider)
	assert.Equal(t, UserRoleStudent, u.Role)
	assert.Nil(t, u.GoogleID)
}

func TestUserUpdateEmpty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())
	now := time.Now()
	assert.False(t, UserUpdate{LastLogin: &now}.Empty())
}
