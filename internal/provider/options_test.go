package provider

import "testing"

func TestTemperatureScaling(t *testing.T) {
	cases := []struct {
		name   string
		stored int
		want   float32
	}{
		{"seventy maps to 0.7", 70, 0.7},
		{"unset defaults to 0.7", 0, 0.7},
		{"negative defaults to 0.7", -5, 0.7},
		{"full scale maps to 1.0", 100, 1.0},
		{"low value maps to 0.05", 5, 0.05},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Options{Temperature: tc.stored}.TemperatureValue()
			if got != tc.want {
				t.Fatalf("temperature %d: want %v, got %v", tc.stored, tc.want, got)
			}
		})
	}
}

func TestMaxTokensDefault(t *testing.T) {
	if got := (Options{}).MaxTokensValue(); got != 2000 {
		t.Fatalf("expected default max tokens 2000, got %d", got)
	}
	if got := (Options{MaxTokens: 512}).MaxTokensValue(); got != 512 {
		t.Fatalf("expected configured max tokens 512, got %d", got)
	}
}

func TestModelDefault(t *testing.T) {
	if got := (Options{}).ModelValue(); got != "gpt-4" {
		t.Fatalf("expected default model gpt-4, got %q", got)
	}
}
