package format

import "testing"

func TestNumber(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{7, "7"},
		{999, "999"},
		{1000, "1.000"},
		{12345, "12.345"},
		{1234567, "1.234.567"},
		{1000000000, "1.000.000.000"},
		{1 << 53, "9.007.199.254.740.992"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := Number(tt.input); got != tt.expected {
				t.Errorf("Number(%d) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name     string
		ms       int64
		expected string
	}{
		{"zero", 0, "0h 0m"},
		{"under a minute", 59000, "0h 0m"},
		{"one and a half hours", 5400000, "1h 30m"},
		{"truncates seconds", 3659999, "1h 0m"},
		{"past a day", 90000000, "25h 0m"},
		{"negative clamps", -1000, "0h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.ms); got != tt.expected {
				t.Errorf("Duration(%d) = %q, want %q", tt.ms, got, tt.expected)
			}
		})
	}
}
