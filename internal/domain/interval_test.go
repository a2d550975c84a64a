package domain

import "testing"

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{Clock(9, 0), Clock(10, 0)}, Interval{Clock(11, 0), Clock(12, 0)}, false},
		{"touching end", Interval{Clock(9, 0), Clock(10, 0)}, Interval{Clock(10, 0), Clock(11, 0)}, false},
		{"touching start", Interval{Clock(10, 0), Clock(11, 0)}, Interval{Clock(9, 0), Clock(10, 0)}, false},
		{"partial", Interval{Clock(9, 0), Clock(10, 0)}, Interval{Clock(9, 30), Clock(10, 30)}, true},
		{"nested", Interval{Clock(9, 0), Clock(12, 0)}, Interval{Clock(10, 0), Clock(11, 0)}, true},
		{"identical", Interval{Clock(9, 0), Clock(10, 0)}, Interval{Clock(9, 0), Clock(10, 0)}, true},
		{"empty inside", Interval{Clock(9, 0), Clock(12, 0)}, Interval{Clock(10, 0), Clock(10, 0)}, false},
		{"degenerate", Interval{Clock(11, 0), Clock(9, 0)}, Interval{Clock(9, 0), Clock(12, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	outer := Interval{Clock(9, 0), Clock(11, 0)}
	tests := []struct {
		name  string
		inner Interval
		want  bool
	}{
		{"exact", outer, true},
		{"inside", Interval{Clock(9, 30), Clock(10, 30)}, true},
		{"flush end", Interval{Clock(10, 0), Clock(11, 0)}, true},
		{"past end", Interval{Clock(10, 15), Clock(11, 15)}, false},
		{"before start", Interval{Clock(8, 45), Clock(9, 45)}, false},
		{"empty", Interval{Clock(10, 0), Clock(10, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(outer, tt.inner); got != tt.want {
				t.Fatalf("Contains(%v, %v) = %v, want %v", outer, tt.inner, got, tt.want)
			}
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "09:00", want: Clock(9, 0)},
		{in: "9:05", want: Clock(9, 5)},
		{in: "17:30:00", want: Clock(17, 30)},
		{in: "24:00", want: EndOfDay},
		{in: "24:01", wantErr: true},
		{in: "10:60", wantErr: true},
		{in: "10:30:15", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "-1:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClockTime(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClockTime(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseClockTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if s := Clock(7, 5).String(); s != "07:05" {
		t.Fatalf("String() = %q, want %q", s, "07:05")
	}
}
