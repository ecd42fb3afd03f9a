package automod

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Идентификаторы встроенных оценщиков.
const (
	EvaluatorGTUBE    = "gtube"
	EvaluatorCaps     = "caps"
	EvaluatorLinks    = "links"
	EvaluatorKeywords = "keywords"
	EvaluatorRemote   = "remote"
)

// GTUBE: тестовая строка: публикация с ней всегда проваливает слот.
const GTUBE = "XJS*C4JDBQADN1.NSBN3*2IDNEN*GTUBE-STANDARD-ANTI-UBE-TEST-EMAIL*C.34X"

// GTUBEEvaluator даёт 1, если в тексте есть GTUBE.
var GTUBEEvaluator = EvaluatorFunc(func(_ context.Context, text string) (float64, error) {
	if strings.Contains(text, GTUBE) {
		return 1, nil
	}
	return 0, nil
})

// CapsEvaluator оценивает долю заглавных букв. Короткие тексты не оцениваются.
type CapsEvaluator struct {
	MinLetters int
}

func (c CapsEvaluator) Evaluate(_ context.Context, text string) (float64, error) {
	var letters, upper int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 || letters < c.MinLetters {
		return 0, nil
	}
	return float64(upper) / float64(letters), nil
}

var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

// ExtractTextURLs находит в тексте похожие на ссылки фрагменты.
func ExtractTextURLs(raw string) []string {
	return urlRegex.FindAllString(raw, -1)
}

// LinksEvaluator: балл растёт с числом ссылок, MaxLinks и больше дают 1.
type LinksEvaluator struct {
	MaxLinks int
}

func (l LinksEvaluator) Evaluate(_ context.Context, text string) (float64, error) {
	n := len(ExtractTextURLs(text))
	if l.MaxLinks <= 0 {
		if n > 0 {
			return 1, nil
		}
		return 0, nil
	}
	return math.Min(1, float64(n)/float64(l.MaxLinks)), nil
}
