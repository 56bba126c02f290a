package appointment

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name               string
		exStart, exEnd     time.Time
		candStart, candEnd time.Time
		want               bool
	}{
		{"identical intervals", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"candidate starts inside", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"candidate ends inside", at(10, 0), at(11, 0), at(9, 30), at(10, 30), true},
		{"candidate contains existing", at(10, 0), at(11, 0), at(9, 0), at(12, 0), true},
		{"existing contains candidate", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"touching: existing ends at candidate start", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching: candidate ends at existing start", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint before", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
		{"disjoint after", at(12, 0), at(13, 0), at(10, 0), at(11, 0), false},
		{"one minute overlap", at(10, 0), at(11, 0), at(10, 59), at(12, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(tc.exStart, tc.exEnd, tc.candStart, tc.candEnd)
			if got != tc.want {
				t.Errorf("Overlaps(%v-%v vs %v-%v) = %v, want %v",
					tc.exStart.Format("15:04"), tc.exEnd.Format("15:04"),
					tc.candStart.Format("15:04"), tc.candEnd.Format("15:04"), got, tc.want)
			}
		})
	}
}

func TestOverlaps_Symmetric(t *testing.T) {
	pairs := [][4]time.Time{
		{at(10, 0), at(11, 0), at(10, 30), at(11, 30)},
		{at(10, 0), at(11, 0), at(11, 0), at(12, 0)},
		{at(9, 0), at(12, 0), at(10, 0), at(11, 0)},
		{at(8, 0), at(9, 0), at(10, 0), at(11, 0)},
	}
	for _, p := range pairs {
		ab := Overlaps(p[0], p[1], p[2], p[3])
		ba := Overlaps(p[2], p[3], p[0], p[1])
		if ab != ba {
			t.Errorf("Overlaps not symmetric for %v-%v vs %v-%v: %v / %v",
				p[0].Format("15:04"), p[1].Format("15:04"),
				p[2].Format("15:04"), p[3].Format("15:04"), ab, ba)
		}
	}
}
