package models

import "testing"

func TestLanguageTokens(t *testing.T) {
	tests := []struct {
		name      string
		languages string
		want      []string
	}{
		{"mixed case and spacing", "English, Swahili , FRENCH", []string{"english", "swahili", "french"}},
		{"empty string", "", nil},
		{"trailing comma", "German,", []string{"german"}},
		{"single", "Japanese", []string{"japanese"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Guide{Languages: tt.languages}
			got := g.LanguageTokens()
			if len(got) != len(tt.want) {
				t.Fatalf("LanguageTokens() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
