package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"guardian", "parent", "Orang Tua", "ORTU", " ortu "} {
		role, err := ParseRole(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, RoleGuardian, role, raw)
	}
	for _, raw := range []string{"teacher", "Guru"} {
		role, err := ParseRole(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, RoleTeacher, role, raw)
	}

	_, err := ParseRole("satpam")
	assert.Error(t, err)
}

func TestHolder(t *testing.T) {
	placeholder := PlaceholderHolder("AB12")
	assert.True(t, placeholder.IsPlaceholder())
	assert.Equal(t, "AB12", placeholder.Code())
	_, ok := placeholder.ChatID()
	assert.False(t, ok)

	resolved := ResolvedHolder(12345)
	assert.False(t, resolved.IsPlaceholder())
	assert.Empty(t, resolved.Code())
	chatID, ok := resolved.ChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(12345), chatID)

	// Garbage never parses as a chat id.
	_, ok = Holder("tg:not-a-number").ChatID()
	assert.False(t, ok)
}
