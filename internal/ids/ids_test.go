package ids

import (
	"strings"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrefixesAndParses(t *testing.T) {
	id := New(PrefixSession)
	require.True(t, strings.HasPrefix(id, PrefixSession))

	_, err := ksuid.Parse(strings.TrimPrefix(id, PrefixSession))
	assert.NoError(t, err)
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New(PrefixUser)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
