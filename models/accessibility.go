package models

import (
	"errors"
	"fmt"
	"strings"
)

// Accessibility is the publication state of a post. A DELETED post is
// logically removed but kept in storage for audit.
type Accessibility string

const (
	AccessibilityUnpublished Accessibility = "UNPUBLISHED"
	AccessibilityPublished   Accessibility = "PUBLISHED"
	AccessibilityHidden      Accessibility = "HIDDEN"
	AccessibilityBanned      Accessibility = "BANNED"
	AccessibilityDeleted     Accessibility = "DELETED"
)

var accessibilityValues = []Accessibility{
	AccessibilityUnpublished,
	AccessibilityPublished,
	AccessibilityHidden,
	AccessibilityBanned,
	AccessibilityDeleted,
}

var (
	// ErrAccessibilityEmpty is returned when no value was supplied at all.
	ErrAccessibilityEmpty = errors.New("accessibility value is required")
	// ErrInvalidAccessibility is returned when the supplied value matches no known state.
	ErrInvalidAccessibility = errors.New("invalid accessibility value")
)

// ParseAccessibility matches raw against the known states ignoring case.
// An absent value and an unknown value are reported as distinct errors.
func ParseAccessibility(raw string) (Accessibility, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrAccessibilityEmpty
	}
	upper := strings.ToUpper(trimmed)
	for _, v := range accessibilityValues {
		if upper == string(v) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w %q: accepted values are %s",
		ErrInvalidAccessibility, raw, strings.Join(accessibilityNames(), ", "))
}

// Valid reports whether a holds one of the five defined states.
func (a Accessibility) Valid() bool {
	for _, v := range accessibilityValues {
		if a == v {
			return true
		}
	}
	return false
}

func (a Accessibility) String() string {
	return string(a)
}

func accessibilityNames() []string {
	names := make([]string, len(accessibilityValues))
	for i, v := range accessibilityValues {
		names[i] = string(v)
	}
	return names
}
