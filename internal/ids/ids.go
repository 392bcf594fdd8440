package ids

import (
	"github.com/segmentio/ksuid"
)

const (
	PrefixUser    = "user_"
	PrefixSession = "session_"
)

// New returns a random, k-sortable identifier tagged with prefix. The ksuid
// payload carries 128 bits from crypto/rand, which makes it safe to use as a
// bearer secret such as a session token.
func New(prefix string) string {
	return prefix + ksuid.New().String()
}
