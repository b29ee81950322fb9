package config

import "testing"

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero falls back", 0, 10},
		{"negative falls back", -3, 10},
		{"in range kept", 25, 25},
		{"clamped to maximum", DefaultPaginationLimit + 1, DefaultPaginationLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePaginationLimit(tt.limit); got != tt.want {
				t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.limit, got, tt.want)
			}
		})
	}
}

func TestNormalizeOffset(t *testing.T) {
	if got := NormalizeOffset(-7); got != 0 {
		t.Errorf("NormalizeOffset(-7) = %d, want 0", got)
	}
	if got := NormalizeOffset(12); got != 12 {
		t.Errorf("NormalizeOffset(12) = %d, want 12", got)
	}
}
