package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSON(t *testing.T) {
	at := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	raw, err := json.Marshal(Event{
		Type:       UserRegistered,
		UserID:     "user_1",
		Email:      "a@example.com",
		Provider:   "email",
		NewAccount: true,
		OccurredAt: at,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "user.registered",
		"user_id": "user_1",
		"email": "a@example.com",
		"provider": "email",
		"new_account": true,
		"occurred_at": "2026-04-01T09:30:00Z"
	}`, string(raw))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: UserLogin}))
	assert.NoError(t, p.Close())
}
