package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Backlog", "Backlog"},
		{"  Sprint\t 12 ", "Sprint 12"},
		{"Line\nbreak", "Line break"},
		{"bell\x07", "bell"},
		// Decomposed e + combining acute composes to a single rune.
		{"Café", "Café"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Title(tt.input))
		})
	}
}

func TestText_KeepsNewlines(t *testing.T) {
	assert.Equal(t, "first\nsecond", Text("  first\nsecond\x00  "))
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", Email("  Ada@Example.COM "))
	assert.Equal(t, Email("ADA@example.com"), Email("ada@EXAMPLE.com"))
}

func TestLabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"High Priority", "high-priority"},
		{"bug", "bug"},
		{"Café", "cafe"},
		{"--urgent!!", "urgent"},
		{"🔥", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Label(tt.input))
		})
	}
}

func TestLabels_DeduplicatesInOrder(t *testing.T) {
	got := Labels([]string{"Bug", "UI", "bug", "", "  ui  ", "Backend"})
	assert.Equal(t, []string{"bug", "ui", "backend"}, got)
}
