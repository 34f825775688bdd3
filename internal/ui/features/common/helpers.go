// Package common provides shared types and utilities for UI features.
package common

import (
	"strconv"

	"github.com/leapstack-labs/arcview/pkg/grid"
)

// Px formats a size in display units as a CSS pixel length.
func Px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// SetHeading returns the section heading for an example set.
func SetHeading(set grid.SetKind) string {
	switch set {
	case grid.SetTest:
		return "Test Examples"
	default:
		return "Training Examples"
	}
}

// CountLabel returns a count with a noun, like "3 examples".
func CountLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
