package utils

import "testing"

func TestGenerateCompletionPin(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pin, err := GenerateCompletionPin()
		if err != nil {
			t.Fatalf("GenerateCompletionPin() error = %v", err)
		}
		if len(pin) != 6 {
			t.Fatalf("pin %q should be 6 characters", pin)
		}
		for _, r := range pin {
			if r < '0' || r > '9' {
				t.Fatalf("pin %q should be numeric", pin)
			}
		}
		seen[pin] = true
	}
	if len(seen) < 2 {
		t.Error("100 draws produced a single pin, generator looks stuck")
	}
}
