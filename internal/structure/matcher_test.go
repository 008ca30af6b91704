package structure

import (
	"testing"
)

func bodyOf(texts ...string) []TextBlock {
	blocks := make([]TextBlock, len(texts))
	for i, text := range texts {
		blocks[i] = TextBlock{Text: text, Page: 3 + i/5, SequenceIndex: 10 + i}
	}
	return blocks
}

func entryOf(title string, level int) OutlineEntry {
	return OutlineEntry{Title: title, NormalizedTitle: Normalize(title), Level: level}
}

// fixedSimilarity scores only the given normalized texts.
func fixedSimilarity(scores map[string]float64) SimilarityFunc {
	return func(_, b string) float64 {
		return scores[b]
	}
}

func TestMatcherPrefixPhase(t *testing.T) {
	entries := []OutlineEntry{entryOf("1. Overview", 1), entryOf("2. Details", 1)}
	body := bodyOf("1. Overview", "Some text", "2. Details")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)

	for i, want := range []int{10, 12} {
		r := results[i]
		if r.Method != MethodPrefix || r.Score != 1.0 {
			t.Errorf("entry %d: method %s score %.2f, want PREFIX 1.00", i, r.Method, r.Score)
		}
		if r.MatchedBlock == nil || r.MatchedBlock.SequenceIndex != want {
			t.Errorf("entry %d: matched %+v, want block %d", i, r.MatchedBlock, want)
		}
	}
	if !body[0].Consumed || body[1].Consumed || !body[2].Consumed {
		t.Errorf("unexpected consumed flags: %v %v %v", body[0].Consumed, body[1].Consumed, body[2].Consumed)
	}
}

func TestMatcherLongerBlock(t *testing.T) {
	entries := []OutlineEntry{entryOf("3.3 Implementation Challenges", 2)}
	body := bodyOf("Intro", "3.3 Implementation Challenges and Risks")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)
	if results[0].Method != MethodPrefix || results[0].MatchedBlock.SequenceIndex != 11 {
		t.Errorf("expected prefix match on block 11, got %s %+v", results[0].Method, results[0].MatchedBlock)
	}
}

func TestMatcherFuzzyPhase(t *testing.T) {
	entries := []OutlineEntry{entryOf("3.3 Implementation Challenges", 2)}
	body := bodyOf("Introduction text goes here", "3.3 lmplementation Challenges")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)
	r := results[0]
	if r.Method != MethodFuzzy {
		t.Fatalf("expected FUZZY, got %s", r.Method)
	}
	if r.MatchedBlock.SequenceIndex != 11 {
		t.Errorf("expected block 11, got %d", r.MatchedBlock.SequenceIndex)
	}
	if r.Score < 0.9 || r.Score >= 1.0 {
		t.Errorf("unexpected score %.3f", r.Score)
	}
}

func TestMatcherThresholdBoundary(t *testing.T) {
	tests := []struct {
		name    string
		score   float64
		matched bool
	}{
		{"equal to threshold", 0.80, true},
		{"just below threshold", 0.79, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(DefaultConfig(), WithSimilarity(fixedSimilarity(map[string]float64{
				"candidate": tt.score,
			})))
			body := bodyOf("Unrelated", "Candidate")
			results, _ := m.Match([]OutlineEntry{entryOf("Alpha Section", 1)}, body)
			r := results[0]

			if r.Matched() != tt.matched {
				t.Fatalf("matched = %v, want %v (method %s)", r.Matched(), tt.matched, r.Method)
			}
			if tt.matched {
				if r.Method != MethodFuzzy || r.Score != tt.score {
					t.Errorf("expected FUZZY %.2f, got %s %.2f", tt.score, r.Method, r.Score)
				}
				return
			}
			if r.Method != MethodNone {
				t.Errorf("expected NONE, got %s", r.Method)
			}
			if len(r.NearMisses) != 1 || r.NearMisses[0].Block.Text != "Candidate" || r.NearMisses[0].Score != tt.score {
				t.Errorf("expected Candidate as near-miss, got %+v", r.NearMisses)
			}
			if body[1].Consumed {
				t.Error("near-miss block must stay unconsumed")
			}
		})
	}
}

func TestMatcherAdjacentPhase(t *testing.T) {
	entries := []OutlineEntry{entryOf("Key Results Summary", 1)}
	body := bodyOf("Key", "Results Summary", "Body text")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)
	r := results[0]
	if r.Method != MethodAdjacent || r.Score != 1.0 {
		t.Fatalf("expected ADJACENT 1.00, got %s %.2f", r.Method, r.Score)
	}
	if r.MatchedBlock.SequenceIndex != 10 || r.Covered == nil || r.Covered.SequenceIndex != 11 {
		t.Errorf("unexpected blocks: matched %+v covered %+v", r.MatchedBlock, r.Covered)
	}
	if r.HeadingText() != "Key Results Summary" {
		t.Errorf("unexpected heading text %q", r.HeadingText())
	}
	if !body[0].Consumed || !body[1].Consumed || body[2].Consumed {
		t.Error("expected both adjacent blocks consumed and nothing else")
	}
}

func TestMatcherPhasePriority(t *testing.T) {
	// "Overvie" is a closer fuzzy candidate, but a prefix candidate exists.
	entries := []OutlineEntry{entryOf("Overview", 1)}
	body := bodyOf("Overvie", "Overview and scope")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)
	if results[0].Method != MethodPrefix || results[0].MatchedBlock.SequenceIndex != 11 {
		t.Errorf("expected prefix match on block 11, got %s %+v", results[0].Method, results[0].MatchedBlock)
	}
}

func TestMatcherMonotonicCursor(t *testing.T) {
	entries := []OutlineEntry{
		entryOf("Alpha Section", 1),
		entryOf("Beta Section", 1),
		entryOf("Gamma Section", 1),
	}
	body := bodyOf("Beta Section", "Alpha Section", "Beta Section again", "Gamma Section")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)

	last := -1
	for i, r := range results {
		if !r.Matched() {
			t.Fatalf("entry %d unmatched", i)
		}
		idx := r.MatchedBlock.SequenceIndex
		if idx < last {
			t.Errorf("entry %d matched block %d before previous match %d", i, idx, last)
		}
		last = idx
	}
	if results[1].MatchedBlock.SequenceIndex != 12 {
		t.Errorf("expected Beta to match block 12, got %d", results[1].MatchedBlock.SequenceIndex)
	}
	if body[0].Consumed {
		t.Error("block before the cursor must not be consumed")
	}
}

func TestMatcherConsumesOnce(t *testing.T) {
	entries := []OutlineEntry{entryOf("Overview", 1), entryOf("Overview", 1)}
	body := bodyOf("Overview", "Text")

	results, _ := NewMatcher(DefaultConfig()).Match(entries, body)
	if !results[0].Matched() {
		t.Fatal("first entry should match")
	}
	if results[1].Matched() {
		t.Errorf("second entry matched consumed block %+v", results[1].MatchedBlock)
	}
	if results[1].Err() == nil {
		t.Error("expected ErrEntryUnmatched for the second entry")
	}

	seen := map[int]bool{}
	for _, r := range results {
		if r.MatchedBlock == nil {
			continue
		}
		if seen[r.MatchedBlock.SequenceIndex] {
			t.Errorf("block %d matched twice", r.MatchedBlock.SequenceIndex)
		}
		seen[r.MatchedBlock.SequenceIndex] = true
	}
}

func TestMatcherSkipsReferences(t *testing.T) {
	cfg := DefaultConfig()
	entries := []OutlineEntry{entryOf("Figure 1 – Breakdown", 1)}
	NewNonHeadingFilter(cfg.NonHeadingPrefixes).MarkEntries(entries)
	body := bodyOf("Figure 1 – Breakdown", "Body text")

	results, filtered := NewMatcher(cfg).Match(entries, body)
	r := results[0]
	if !r.IsSkipped() || r.Method != MethodNone || r.MatchedBlock != nil {
		t.Errorf("expected skipped result, got %+v", r)
	}
	if r.Err() != nil {
		t.Errorf("skipped entry should not report an error, got %v", r.Err())
	}
	if filtered != 1 {
		t.Errorf("expected 1 filtered block, got %d", filtered)
	}
	if body[0].Consumed {
		t.Error("filtered block must stay unconsumed")
	}
}

func TestMatcherNearMisses(t *testing.T) {
	cfg := DefaultConfig()
	m := NewMatcher(cfg, WithSimilarity(fixedSimilarity(map[string]float64{
		"one":   0.60,
		"two":   0.70,
		"three": 0.70,
		"four":  0.55,
		"five":  0.40,
	})))
	body := bodyOf("One", "Two", "Three", "Four", "Five")

	results, _ := m.Match([]OutlineEntry{entryOf("Missing Section", 1)}, body)
	near := results[0].NearMisses
	if len(near) != cfg.MaxSuggestions {
		t.Fatalf("expected %d near-misses, got %d", cfg.MaxSuggestions, len(near))
	}
	want := []string{"Two", "Three", "One"}
	for i, w := range want {
		if near[i].Block.Text != w {
			t.Errorf("near-miss %d = %q, want %q", i, near[i].Block.Text, w)
		}
	}
}

func TestMatcherSearchWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdjacentSearchWindow = 2
	m := NewMatcher(cfg, WithSimilarity(fixedSimilarity(map[string]float64{"target": 0.95})))

	t.Run("fuzzy bounded", func(t *testing.T) {
		body := bodyOf("a a a", "b b b", "c c c", "Target")
		results, _ := m.Match([]OutlineEntry{entryOf("Something Else", 1)}, body)
		if results[0].Matched() {
			t.Errorf("fuzzy phase matched outside window: %+v", results[0].MatchedBlock)
		}
	})

	t.Run("prefix unbounded", func(t *testing.T) {
		body := bodyOf("a a a", "b b b", "c c c", "Something Else entirely")
		results, _ := m.Match([]OutlineEntry{entryOf("Something Else", 1)}, body)
		if results[0].Method != MethodPrefix {
			t.Errorf("expected prefix match beyond window, got %s", results[0].Method)
		}
	})
}

func TestMatcherMinPrefixLength(t *testing.T) {
	entries := []OutlineEntry{entryOf("Aim", 1)}
	body := bodyOf("Aim of the study")

	results, _ := NewMatcher(DefaultConfig(), WithSimilarity(fixedSimilarity(nil))).Match(entries, body)
	if results[0].Matched() {
		t.Errorf("short title should not prefix-match, got %s", results[0].Method)
	}
}

func TestMatcherWrappedTitle(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		body        []string
		wantMethod  MatchMethod
		wantHeading string
		wantCovered bool
	}{
		{
			name:        "long first line",
			title:       "3.3 Implementation Challenges",
			body:        []string{"3.3 Implementation", "Challenges", "Body text"},
			wantMethod:  MethodAdjacent,
			wantHeading: "3.3 Implementation Challenges",
			wantCovered: true,
		},
		{
			name:        "title split over three lines",
			title:       "3.3 Implementation Challenges and Risks",
			body:        []string{"3.3 Implementation", "Challenges and", "Risks"},
			wantMethod:  MethodAdjacent,
			wantHeading: "3.3 Implementation Challenges and",
			wantCovered: true,
		},
		{
			name:        "successor is body text",
			title:       "3.3 Implementation Challenges",
			body:        []string{"3.3 Implementation", "Body text"},
			wantMethod:  MethodPrefix,
			wantHeading: "3.3 Implementation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bodyOf(tt.body...)
			results, _ := NewMatcher(DefaultConfig()).Match([]OutlineEntry{entryOf(tt.title, 2)}, body)
			r := results[0]

			if r.Method != tt.wantMethod {
				t.Fatalf("method = %s, want %s", r.Method, tt.wantMethod)
			}
			if r.HeadingText() != tt.wantHeading {
				t.Errorf("heading = %q, want %q", r.HeadingText(), tt.wantHeading)
			}
			if (r.Covered != nil) != tt.wantCovered {
				t.Errorf("covered = %+v, want covered %v", r.Covered, tt.wantCovered)
			}
			if body[1].Consumed != tt.wantCovered {
				t.Errorf("second block consumed = %v, want %v", body[1].Consumed, tt.wantCovered)
			}
		})
	}
}
