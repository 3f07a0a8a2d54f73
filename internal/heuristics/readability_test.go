package heuristics

import "testing"

func TestCountSentences(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"One. Two! Three?", 3},
		{"no terminal punctuation", 1},
		{"Hi.. There..", 2},
		{"Trailing fragment. still counts", 2},
	}
	for _, tc := range cases {
		if got := countSentences(tc.text); got != tc.want {
			t.Fatalf("countSentences(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestCountSyllables(t *testing.T) {
	cases := []struct {
		word string
		want int
	}{
		{"code", 2},
		{"strength", 1},
		{"idea", 2},
		{"tsk", 1},
		{"analyze", 4},
	}
	for _, tc := range cases {
		if got := countSyllables(tc.word); got != tc.want {
			t.Fatalf("countSyllables(%q) = %d, want %d", tc.word, got, tc.want)
		}
	}
}

func TestFleschPrefersSimpleText(t *testing.T) {
	simple := "The cat sat. The dog ran. The bird flew."
	dense := "Multidimensional organizational heterogeneity necessitates comprehensive infrastructural reconceptualization alongside institutional recalibration."

	if fleschReadingEase(simple) <= fleschReadingEase(dense) {
		t.Fatalf("expected simple text to score higher: simple=%f dense=%f",
			fleschReadingEase(simple), fleschReadingEase(dense))
	}
}

func TestFleschEmptyText(t *testing.T) {
	if got := fleschReadingEase("   "); got != 0 {
		t.Fatalf("expected 0 for empty text, got %f", got)
	}
}
