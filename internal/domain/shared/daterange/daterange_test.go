package daterange

import (
	"testing"
	"time"
)

func mustRange(t *testing.T, in, out string) DateRange {
	t.Helper()
	r, err := Parse(in, out)
	if err != nil {
		t.Fatalf("Parse(%s, %s): %v", in, out, err)
	}
	return r
}

func TestNewRejectsInvertedAndEmptyRanges(t *testing.T) {
	cases := [][2]string{
		{"2025-10-17", "2025-10-15"},
		{"2025-10-15", "2025-10-15"},
	}
	for _, c := range cases {
		if _, err := Parse(c[0], c[1]); err != ErrInvalidRange {
			t.Errorf("Parse(%s, %s): want ErrInvalidRange, got %v", c[0], c[1], err)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "2025-13-01", "15-10-2025", "2025/10/15"} {
		if _, err := ParseDate(raw); err == nil {
			t.Errorf("ParseDate(%q): expected error", raw)
		}
	}
}

func TestOverlaps(t *testing.T) {
	base := mustRange(t, "2025-10-15", "2025-10-18")
	cases := []struct {
		in, out string
		want    bool
	}{
		{"2025-10-17", "2025-10-20", true},  // one shared night on the 17th
		{"2025-10-18", "2025-10-20", false}, // checkout/checkin adjacency
		{"2025-10-10", "2025-10-15", false},
		{"2025-10-10", "2025-10-16", true},
		{"2025-10-15", "2025-10-18", true},
		{"2025-10-16", "2025-10-17", true}, // fully inside
		{"2025-10-01", "2025-11-01", true}, // fully covering
	}
	for _, c := range cases {
		other := mustRange(t, c.in, c.out)
		if got := base.Overlaps(other); got != c.want {
			t.Errorf("Overlaps(%s): got %v, want %v", other, got, c.want)
		}
		if got := other.Overlaps(base); got != c.want {
			t.Errorf("Overlaps(%s) not symmetric", other)
		}
	}
}

// The legacy conflict query used a three-way boundary comparison. The half-open
// overlap rule must agree with it for every non-degenerate pair.
func TestOverlapsMatchesThreeWayBoundaryFormula(t *testing.T) {
	threeWay := func(a, b DateRange) bool {
		// (check_in <= qIn AND check_out > qIn) OR
		// (check_in < qOut AND check_out >= qOut) OR
		// (check_in >= qIn AND check_out <= qOut)
		le := func(x, y Date) bool { return !x.After(y) }
		ge := func(x, y Date) bool { return !x.Before(y) }
		return (le(a.CheckIn, b.CheckIn) && a.CheckOut.After(b.CheckIn)) ||
			(a.CheckIn.Before(b.CheckOut) && ge(a.CheckOut, b.CheckOut)) ||
			(ge(a.CheckIn, b.CheckIn) && le(a.CheckOut, b.CheckOut))
	}

	origin := NewDate(2025, time.October, 1)
	for aIn := 0; aIn < 8; aIn++ {
		for aOut := aIn + 1; aOut <= 8; aOut++ {
			for bIn := 0; bIn < 8; bIn++ {
				for bOut := bIn + 1; bOut <= 8; bOut++ {
					a := DateRange{CheckIn: origin.AddDays(aIn), CheckOut: origin.AddDays(aOut)}
					b := DateRange{CheckIn: origin.AddDays(bIn), CheckOut: origin.AddDays(bOut)}
					if a.Overlaps(b) != threeWay(a, b) {
						t.Fatalf("disagreement for %s vs %s", a, b)
					}
				}
			}
		}
	}
}

func TestNightsExcludesCheckoutDay(t *testing.T) {
	r := mustRange(t, "2025-10-15", "2025-10-17")
	nights := r.Nights()
	want := []string{"2025-10-15", "2025-10-16"}
	if len(nights) != len(want) {
		t.Fatalf("Nights: got %d entries, want %d", len(nights), len(want))
	}
	for i, n := range nights {
		if n.String() != want[i] {
			t.Errorf("Nights[%d] = %s, want %s", i, n, want[i])
		}
	}
	// restartable: a second call yields the same sequence
	again := r.Nights()
	for i := range again {
		if !again[i].Equal(nights[i]) {
			t.Fatalf("Nights not restartable at index %d", i)
		}
	}
}

func TestNightsStepsThroughDSTTransition(t *testing.T) {
	// 2025-03-30 is the EU DST switch; calendar stepping must not skip or
	// duplicate a day.
	r := mustRange(t, "2025-03-29", "2025-04-01")
	nights := r.Nights()
	want := []string{"2025-03-29", "2025-03-30", "2025-03-31"}
	if len(nights) != 3 {
		t.Fatalf("got %d nights, want 3", len(nights))
	}
	for i, n := range nights {
		if n.String() != want[i] {
			t.Errorf("Nights[%d] = %s, want %s", i, n, want[i])
		}
	}
}

func TestNightsCount(t *testing.T) {
	if got := mustRange(t, "2025-10-15", "2025-10-18").NightsCount(); got != 3 {
		t.Errorf("NightsCount = %d, want 3", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.October, 15)
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != `"2025-10-15"` {
		t.Fatalf("MarshalJSON = %s", data)
	}
	var back Date
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("round trip mismatch: %s", back)
	}
}
