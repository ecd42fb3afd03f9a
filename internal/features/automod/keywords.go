package automod

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Tokenize делит текст на слова: нижний регистр, NFC, без диакритики и пунктуации.
func Tokenize(text string) []string {
	// transform.Chain нельзя переиспользовать между горутинами
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		log.WithError(err).Warn("Ошибка unicode-нормализации")
		folded = bare
	}
	return strings.Fields(folded)
}

// KeywordEvaluator считает совпадения токенов текста со списком слов.
// Балл = совпадения / Saturation, не больше 1.
type KeywordEvaluator struct {
	Set        string // имя списка в JSON-файле
	Saturation int

	mu    sync.RWMutex
	words map[string]bool
}

// NewKeywordEvaluator создаёт оценщика со списком слов в памяти.
func NewKeywordEvaluator(set string, saturation int, words ...string) *KeywordEvaluator {
	k := &KeywordEvaluator{Set: set, Saturation: saturation}
	k.Replace(words)
	return k
}

// Replace атомарно заменяет список слов. Слова проходят ту же нормализацию, что и текст.
func (k *KeywordEvaluator) Replace(words []string) {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		for _, tok := range Tokenize(w) {
			m[tok] = true
		}
	}
	k.mu.Lock()
	k.words = m
	k.mu.Unlock()
}

// Len: размер текущего списка.
func (k *KeywordEvaluator) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.words)
}

// LoadFromFileJSON читает файл вида {"<set>": ["word", ...]} и берёт список k.Set.
func (k *KeywordEvaluator) LoadFromFileJSON(p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var sets map[string][]string
	if err := json.Unmarshal(raw, &sets); err != nil {
		return fmt.Errorf("список слов %s: %w", p, err)
	}
	words, ok := sets[k.Set]
	if !ok {
		return fmt.Errorf("список слов %s: нет набора %q", p, k.Set)
	}
	k.Replace(words)
	return nil
}

func (k *KeywordEvaluator) Evaluate(_ context.Context, text string) (float64, error) {
	k.mu.RLock()
	words := k.words
	k.mu.RUnlock()

	hits := 0
	for _, tok := range Tokenize(text) {
		if words[tok] {
			hits++
		}
	}
	saturation := k.Saturation
	if saturation <= 0 {
		saturation = 1
	}
	return math.Min(1, float64(hits)/float64(saturation)), nil
}
