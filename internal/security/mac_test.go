package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerify(t *testing.T) {
	secret := []byte("k")
	sig := Sign(secret, "a", "b")

	assert.True(t, VerifySignature(secret, sig, "a", "b"))
	assert.False(t, VerifySignature(secret, sig, "a", "c"))
	assert.False(t, VerifySignature([]byte("other"), sig, "a", "b"))
	assert.NotContains(t, sig, "=")
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"trims", "  Ana  ", 10, "Ana"},
		{"strips markup", "<script>Ana</script>", 100, "scriptAna/script"},
		{"strips control", "A\x00n\na", 10, "Ana"},
		{"truncates runes", "Ñandú Pérez", 5, "Ñandú"},
		{"no limit", "Ana María", 0, "Ana María"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in, tt.max))
		})
	}
}
