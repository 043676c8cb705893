package locale

import "testing"

func TestForTimezone(t *testing.T) {
	tests := []struct {
		timezone string
		want     string
	}{
		{"Europe/London", "Europe/London (United Kingdom)"},
		{"America/New_York", "America/New_York (United States)"},
		{"Asia/Tokyo", "Asia/Tokyo (Japan)"},
		{"Asia/Seoul", "Asia/Seoul (South Korea)"},

		// No country
		{"UTC", "UTC"},
		{"GMT", "GMT"},
		{"Etc/UTC", "Etc/UTC"},
		{"Not/AZone", "Not/AZone"},
	}

	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			got := ForTimezone(tt.timezone).String()
			if got != tt.want {
				t.Errorf("ForTimezone(%q) = %q, want %q", tt.timezone, got, tt.want)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	// Just verify it returns a zone without panicking
	if got := Detect(); got.Timezone == "" {
		t.Error("Detect() returned an empty timezone")
	}
}
