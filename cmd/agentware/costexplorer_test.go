package main

import "testing"

func TestSamplePrompts(t *testing.T) {
	all := []string{"a", "b", "c", "d"}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"subset", 2, 2},
		{"exact", 4, 4},
		{"more than available", 10, 4},
		{"zero", 0, 0},
		{"negative", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := samplePrompts(all, tt.n)
			if len(got) != tt.want {
				t.Fatalf("expected %d prompts, got %d", tt.want, len(got))
			}
			seen := make(map[string]bool, len(got))
			for _, p := range got {
				if seen[p] {
					t.Errorf("prompt %q sampled twice", p)
				}
				seen[p] = true
			}
		})
	}
}
