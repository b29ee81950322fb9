package sanitizer

import "testing"

func TestClampInt(t *testing.T) {
	tests := []struct {
		name        string
		v, min, max int
		want        int
	}{
		{"below range", -5, 1, 100, 1},
		{"at lower bound", 1, 1, 100, 1},
		{"inside range", 42, 1, 100, 42},
		{"at upper bound", 100, 1, 100, 100},
		{"above range", 500, 1, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampInt(tt.v, tt.min, tt.max); got != tt.want {
				t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.min, tt.max, got, tt.want)
			}
		})
	}
}
