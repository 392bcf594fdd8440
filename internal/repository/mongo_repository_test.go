package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"authgate/api/internal/models"
)

func TestUserDocumentRoundTrip(t *testing.T) {
	picture := "https://example.com/p.png"
	googleID := "g-1"
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	in := models.User{
		ID:           "user_1",
		Email:        "a@example.com",
		PasswordHash: []byte("$argon2id$hash"),
		Name:         "Ana",
		Role:         models.UserRoleStudent,
		Picture:      &picture,
		AuthProvider: models.AuthProviderHybrid,
		GoogleID:     &googleID,
		CreatedAt:    now,
		LastLogin:    &now,
	}

	assert.Equal(t, in, newUserDocument(in).model())
}

func TestUserDocumentWithoutPassword(t *testing.T) {
	doc := newUserDocument(models.User{ID: "user_2", AuthProvider: models.AuthProviderGoogle})
	assert.Nil(t, doc.Password)
	assert.Nil(t, doc.model().PasswordHash)
}
