package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessibility_CaseInsensitive(t *testing.T) {
	cases := map[string]Accessibility{
		"PUBLISHED":     AccessibilityPublished,
		"published":     AccessibilityPublished,
		"Published":     AccessibilityPublished,
		"  hidden  ":    AccessibilityHidden,
		"banned":        AccessibilityBanned,
		"deleted":       AccessibilityDeleted,
		"unpublished":   AccessibilityUnpublished,
		"uNpUbLiShEd":   AccessibilityUnpublished,
		"\tPUBLISHED\n": AccessibilityPublished,
	}
	for raw, want := range cases {
		got, err := ParseAccessibility(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Equal(t, want, got, "input %q", raw)
	}
}

func TestParseAccessibility_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := ParseAccessibility(raw)
		assert.ErrorIs(t, err, ErrAccessibilityEmpty, "input %q", raw)
	}
}

func TestParseAccessibility_Unknown(t *testing.T) {
	_, err := ParseAccessibility("archived")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAccessibility)
	// the message enumerates the accepted states for the caller
	assert.Contains(t, err.Error(), "archived")
	assert.Contains(t, err.Error(), "UNPUBLISHED, PUBLISHED, HIDDEN, BANNED, DELETED")
}

func TestAccessibility_Valid(t *testing.T) {
	assert.True(t, AccessibilityPublished.Valid())
	assert.True(t, AccessibilityDeleted.Valid())
	assert.False(t, Accessibility("").Valid())
	assert.False(t, Accessibility("published").Valid(), "stored values are upper case only")
}
