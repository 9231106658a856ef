package timeutil

import "testing"

func TestParseHHmm_Table(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"midnight", "00:00", 0, false},
		{"noon", "12:00", 720, false},
		{"last minute", "23:59", 1439, false},
		{"bad hour", "24:00", 0, true},
		{"bad minute", "12:60", 0, true},
		{"no colon", "1200", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHHmm(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHHmm(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("ParseHHmm(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestRangesOverlap_CrossMidnight(t *testing.T) {
	// cross-midnight overlap edge cases
	a := MustParseHHmm("22:00")
	aEnd := MustParseHHmm("02:00")
	b1 := MustParseHHmm("01:00")
	b1End := MustParseHHmm("03:00")
	if !RangesOverlap(a, aEnd, b1, b1End) {
		t.Fatal("expected overlap for 22:00-02:00 vs 01:00-03:00")
	}

	b2 := MustParseHHmm("03:00")
	b2End := MustParseHHmm("04:00")
	if RangesOverlap(a, aEnd, b2, b2End) {
		t.Fatal("expected no overlap for 22:00-02:00 vs 03:00-04:00")
	}
}

func TestRangesOverlap_HalfOpen(t *testing.T) {
	s := MustParseHHmm("09:00")
	e := MustParseHHmm("10:00")
	if RangesOverlap(s, e, e, MustParseHHmm("11:00")) {
		t.Fatal("identical endpoint must not overlap (half-open)")
	}
	if !RangesOverlap(s, e, s, e) {
		t.Fatal("identical ranges must overlap")
	}
}

func TestResolveShiftEnd(t *testing.T) {
	start := MustParseHHmm("22:00")

	// explicit end before start wraps
	explicit := MustParseHHmm("02:00")
	end, ok := ResolveShiftEnd(start, &explicit, nil, 0)
	if !ok || end != explicit+MinutesPerDay {
		t.Fatalf("explicit wrap: got end=%d ok=%v", end, ok)
	}

	// null end, closing present: 23:00+90 already lands past midnight
	// (1470 > start), so no further wrap is added
	closing := MustParseHHmm("23:00")
	end, ok = ResolveShiftEnd(start, nil, &closing, 90)
	want := closing + 90
	if !ok || end != want {
		t.Fatalf("closing+offset wrap: got end=%d want=%d ok=%v", end, want, ok)
	}

	// null end, no closing -> unresolved
	if _, ok := ResolveShiftEnd(start, nil, nil, 0); ok {
		t.Fatal("expected unresolved end with no closing time")
	}
}

func TestNewSlotKey_Bucketing(t *testing.T) {
	k := NewSlotKey("2025-01-06", MustParseHHmm("08:37"), 30)
	dk, hhmm, ok := SplitSlotKey(k)
	if !ok || dk != "2025-01-06" || hhmm != "08:30" {
		t.Fatalf("got dk=%q hhmm=%q ok=%v", dk, hhmm, ok)
	}
}

func TestAddDaysToDateKey(t *testing.T) {
	got, err := AddDaysToDateKey("2024-01-04", 1)
	if err != nil || got != "2024-01-05" {
		t.Fatalf("AddDaysToDateKey = %q, %v", got, err)
	}
	got, err = AddDaysToDateKey("2024-02-28", 1)
	if err != nil || got != "2024-02-29" { // 2024 is a leap year
		t.Fatalf("leap day rollover: got %q, %v", got, err)
	}
	got, err = AddDaysToDateKey("2024-12-31", 1)
	if err != nil || got != "2025-01-01" {
		t.Fatalf("year rollover: got %q, %v", got, err)
	}
}

func TestDayOfWeek(t *testing.T) {
	// 2025-01-06 is a Monday
	dow, err := DayOfWeek("2025-01-06")
	if err != nil || dow != 1 {
		t.Fatalf("DayOfWeek(2025-01-06) = %d, %v, want 1 (Monday)", dow, err)
	}
}

func TestEnumerateSlots(t *testing.T) {
	got := EnumerateSlots(MustParseHHmm("08:00"), MustParseHHmm("09:30"), 30)
	want := []string{"08:00", "08:30", "09:00"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, m := range got {
		if FormatHHmm(m) != want[i] {
			t.Fatalf("slot[%d] = %s, want %s", i, FormatHHmm(m), want[i])
		}
	}
}

func TestValidBucketMinutes(t *testing.T) {
	for _, m := range []int{5, 10, 15, 20, 30, 60} {
		if !ValidBucketMinutes(m) {
			t.Fatalf("expected %d to be valid", m)
		}
	}
	for _, m := range []int{0, 7, 45, 90} {
		if ValidBucketMinutes(m) {
			t.Fatalf("expected %d to be invalid", m)
		}
	}
}
