package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "trims and drops empties",
			input:    []string{"  kafka-1:9092 ", "", "   ", "kafka-2:9092"},
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "drops duplicates, keeps first-seen order",
			input:    []string{"b", "a", "b ", " a"},
			expected: []string{"b", "a"},
		},
		{
			name:     "trailing comma split",
			input:    strings.Split("kafka-1:9092,", ","),
			expected: []string{"kafka-1:9092"},
		},
		{
			name:     "nil stays nil",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
