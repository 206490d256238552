package utils

import (
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "drops fractional seconds",
			input:    time.Date(2024, 11, 8, 10, 30, 45, 123456789, time.UTC),
			expected: "2024-11-08T10:30:45Z",
		},
		{
			name:     "midnight",
			input:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: "2024-01-01T00:00:00Z",
		},
		{
			name:     "converts to UTC",
			input:    time.Date(2024, 6, 15, 14, 30, 0, 0, time.FixedZone("EST", -5*3600)),
			expected: "2024-06-15T19:30:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatTimestamp(tt.input)
			if result != tt.expected {
				t.Errorf("FormatTimestamp() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "bare date",
			input:    "2024-03-05",
			expected: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "zone-less timestamp",
			input:    "2024-03-05T17:45:00",
			expected: time.Date(2024, 3, 5, 17, 45, 0, 0, time.UTC),
		},
		{
			name:     "rfc3339 with offset",
			input:    "2024-03-05T17:45:00+02:00",
			expected: time.Date(2024, 3, 5, 15, 45, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDateFormatRoundTrip(t *testing.T) {
	original := time.Date(2024, 11, 8, 15, 30, 45, 0, time.UTC)
	parsed, err := ParseDate(FormatTimestamp(original))
	if err != nil {
		t.Fatalf("Failed to parse formatted timestamp: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("Round trip failed: original %v, parsed %v", original, parsed)
	}
}
