package structure

import "testing"

func TestNonHeadingFilter(t *testing.T) {
	f := NewNonHeadingFilter(DefaultConfig().NonHeadingPrefixes)

	tests := []struct {
		text     string
		expected bool
	}{
		{"Figure 1 – Breakdown", true},
		{"FIGURE 2: Layout", true},
		{"Fig. 3 Chart", true},
		{"Table 2 Results", true},
		{"Tbl. 4 Costs", true},
		{"그림 3 구조", true},
		{"List of Tables", true},
		{"Tables and Figures", false},
		{"Overview", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := f.IsNonHeading(Normalize(tt.text)); got != tt.expected {
				t.Errorf("IsNonHeading(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestFilterBlocks(t *testing.T) {
	f := NewNonHeadingFilter(DefaultConfig().NonHeadingPrefixes)
	blocks := pagesOf([]string{"1. Overview", "Figure 1 – Breakdown", "Body", "Table 1 Costs"})

	mask, n := f.FilterBlocks(blocks)
	if n != 2 {
		t.Errorf("expected 2 filtered blocks, got %d", n)
	}
	want := []bool{false, true, false, true}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
		if blocks[i].Consumed {
			t.Errorf("block %d marked consumed by filter", i)
		}
	}
}

func TestMarkEntries(t *testing.T) {
	f := NewNonHeadingFilter(DefaultConfig().NonHeadingPrefixes)
	entries := []OutlineEntry{
		{Title: "1. Overview", NormalizedTitle: Normalize("1. Overview")},
		{Title: "Figure 1 – Breakdown", NormalizedTitle: Normalize("Figure 1 – Breakdown")},
	}
	f.MarkEntries(entries)

	if entries[0].Skipped {
		t.Error("section entry should not be skipped")
	}
	if !entries[1].Skipped || entries[1].SkipReason != SkipReasonReference {
		t.Errorf("expected figure entry skipped with reason, got %+v", entries[1])
	}
}
