package pagination

import "testing"

func TestClampPageSize(t *testing.T) {
	cfg := PageSizeConfig{Default: 20, Max: 100}
	tcs := []struct {
		in   int32
		want int
	}{
		{in: 0, want: 20},
		{in: -3, want: 20},
		{in: 5, want: 5},
		{in: 500, want: 100},
	}
	for _, tc := range tcs {
		if got := ClampPageSize(tc.in, cfg); got != tc.want {
			t.Fatalf("ClampPageSize(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := ClampPageSize(0, PageSizeConfig{}); got != 1 {
		t.Fatalf("ClampPageSize with empty config = %d, want 1", got)
	}
}
