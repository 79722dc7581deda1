package research

import "testing"

func TestJoinBullets(t *testing.T) {
	tests := []struct {
		name    string
		bullets []string
		want    string
	}{
		{
			"joins fragments",
			[]string{"4K resolution", "Online multiplayer"},
			"4K resolution\nOnline multiplayer",
		},
		{
			"skips heading and blanks",
			[]string{"About this item", "", "  ", "Includes controller"},
			"Includes controller",
		},
		{
			"heading match is case insensitive",
			[]string{"ABOUT THIS ITEM", "Region free"},
			"Region free",
		},
		{"empty input", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinBullets(tt.bullets); got != tt.want {
				t.Errorf("joinBullets(%v) = %q, want %q", tt.bullets, got, tt.want)
			}
		})
	}
}
