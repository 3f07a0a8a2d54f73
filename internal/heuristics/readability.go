package heuristics

import (
	"strings"
	"unicode"
)

// fleschReadingEase computes the Flesch reading-ease score:
// 206.835 - 1.015*(words/sentences) - 84.6*(syllables/words).
// Higher is easier; instructional prose usually lands between 30 and 70.
func fleschReadingEase(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	sentences := countSentences(text)
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	return 206.835 -
		1.015*float64(len(words))/float64(sentences) -
		84.6*float64(syllables)/float64(len(words))
}

// countSentences counts fragments separated by sentence punctuation. Any
// non-empty text counts as at least one sentence.
func countSentences(text string) int {
	count := 0
	inFragment := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if inFragment {
				count++
				inFragment = false
			}
		case !unicode.IsSpace(r):
			inFragment = true
		}
	}
	if inFragment {
		count++
	}
	if count == 0 {
		return 1
	}
	return count
}

// countSyllables estimates syllables as runs of vowels, with a minimum of
// one per word. Crude, but consistent, which is all the scoring needs.
func countSyllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range strings.ToLower(word) {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if count == 0 {
		return 1
	}
	return count
}
