package service

import (
	"strings"
	"unicode"

	"mostashar/internal/models"
)

// LanguageDetector classifies text as Arabic or English with three weighted
// heuristics: script character ratio, common-word hits, and Arabic-specific
// punctuation. Deterministic and dependency-free; ties fall to English.
type LanguageDetector struct{}

func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

var arabicCommonWords = map[string]struct{}{
	"في": {}, "من": {}, "على": {}, "إلى": {}, "الى": {}, "عن": {},
	"ما": {}, "هل": {}, "هذا": {}, "هذه": {}, "التي": {}, "الذي": {},
	"هي": {}, "هو": {}, "مع": {}, "أو": {}, "كل": {}, "عند": {},
}

var englishCommonWords = map[string]struct{}{
	"the": {}, "is": {}, "are": {}, "of": {}, "to": {}, "and": {},
	"what": {}, "how": {}, "for": {}, "in": {}, "on": {}, "a": {},
	"an": {}, "with": {}, "that": {}, "this": {}, "be": {}, "it": {},
}

// Arabic question mark, comma and semicolon.
var arabicPunctuation = []rune{'؟', '،', '؛'}

const (
	scriptWeight      = 3.0
	commonWordWeight  = 2.0
	punctuationWeight = 1.0
)

func (d *LanguageDetector) Detect(text string) models.Language {
	var arabicScore, englishScore float64

	arabicLetters, latinLetters := 0, 0
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabicLetters++
		case unicode.In(r, unicode.Latin):
			latinLetters++
		}
	}
	totalLetters := arabicLetters + latinLetters
	if totalLetters > 0 {
		arabicScore += scriptWeight * float64(arabicLetters) / float64(totalLetters)
		englishScore += scriptWeight * float64(latinLetters) / float64(totalLetters)
	}

	words := strings.Fields(strings.ToLower(text))
	arabicHits, englishHits := 0, 0
	for _, w := range words {
		w = strings.Trim(w, ".,!?؟،؛:;\"'()")
		if _, ok := arabicCommonWords[w]; ok {
			arabicHits++
		}
		if _, ok := englishCommonWords[w]; ok {
			englishHits++
		}
	}
	if len(words) > 0 {
		arabicScore += commonWordWeight * float64(arabicHits) / float64(len(words))
		englishScore += commonWordWeight * float64(englishHits) / float64(len(words))
	}

	for _, p := range arabicPunctuation {
		if strings.ContainsRune(text, p) {
			arabicScore += punctuationWeight
			break
		}
	}

	if arabicScore > englishScore {
		return models.LanguageArabic
	}
	return models.LanguageEnglish
}
