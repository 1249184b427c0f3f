package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWordRemovers cut structural words out of a title before the
// leftover text is considered as a color. The accented spellings in
// the stop list get their own patterns so CAJÓN is removed as reliably
// as CAJON.
var stopWordRemovers = buildStopWordRemovers()

func buildStopWordRemovers() []*regexp.Regexp {
	removers := make([]*regexp.Regexp, 0, len(stopWords))
	for _, w := range stopWords {
		removers = append(removers, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return removers
}

// extractModel finds the base model name: the first meaningful words
// left after the brand, product type, and base category are removed
// from the title. Stop words, digits, brand names, and single letters
// do not count as meaningful. Colors are skipped before the model and
// end it afterwards, so "ROSEN BALTICO GRIS" yields BALTICO. Models
// are capped at three words.
func extractModel(text, brand, productType, baseCategory string) string {
	remaining := text

	if brand != "" {
		remaining = removeTerm(remaining, brand)
	}
	if productType != "" {
		for _, word := range strings.Fields(productType) {
			remaining = removeTerm(remaining, word)
		}
	}
	if baseCategory != "" && baseCategory != productType {
		for _, word := range strings.Fields(baseCategory) {
			remaining = removeTerm(remaining, word)
		}
	}

	meaningful := meaningfulWords(remaining)
	if len(meaningful) == 0 {
		return ""
	}

	limit := min(len(meaningful), 4)
	modelWords := make([]string, 0, 3)
	for _, word := range meaningful[:limit] {
		if isLikelyColor(word) {
			if len(modelWords) >= 1 {
				break
			}
			continue
		}
		modelWords = append(modelWords, word)
		if len(modelWords) >= 3 {
			break
		}
	}

	return strings.Join(modelWords, " ")
}

// meaningfulWords filters a title down to candidate model words.
func meaningfulWords(text string) []string {
	words := strings.Fields(text)
	meaningful := make([]string, 0, len(words))
	for _, word := range words {
		stripped := stripAccents(word)
		if _, ok := stopWordSet[stripped]; ok {
			continue
		}
		if utf8.RuneCountInString(word) <= 1 || isDigits(word) {
			continue
		}
		if _, ok := brandWordSet[stripped]; ok {
			continue
		}
		meaningful = append(meaningful, word)
	}
	return meaningful
}

// extractColor returns up to two color words: whatever meaningful text
// survives once the brand, the model words, and every stop word are
// removed. Empty means the title named no color.
func extractColor(text, brand, baseModel string) string {
	remaining := text

	if brand != "" {
		remaining = removeTerm(remaining, brand)
	}
	if baseModel != "" {
		for _, word := range strings.Fields(baseModel) {
			remaining = removeTerm(remaining, word)
		}
	}
	for _, re := range stopWordRemovers {
		remaining = re.ReplaceAllString(remaining, "")
	}

	brandVariations := make(map[string]struct{}, len(brandWordSet)+1)
	for name := range brandWordSet {
		brandVariations[name] = struct{}{}
	}
	if brand != "" {
		brandVariations[stripAccents(strings.ToUpper(brand))] = struct{}{}
	}

	colorWords := make([]string, 0, 2)
	for _, word := range strings.Fields(remaining) {
		stripped := stripAccents(word)
		if _, ok := stopWordSet[stripped]; ok {
			continue
		}
		if _, ok := brandVariations[stripped]; ok {
			continue
		}
		if utf8.RuneCountInString(word) <= 1 || isDigits(word) {
			continue
		}
		colorWords = append(colorWords, word)
		if len(colorWords) == 2 {
			break
		}
	}

	return strings.Join(colorWords, " ")
}

// isLikelyColor reports whether a word names a known color or fabric.
func isLikelyColor(word string) bool {
	_, ok := colorNameSet[stripAccents(strings.ToUpper(word))]
	return ok
}

// removeTerm deletes whole-word occurrences of term from text. The
// boundary checks are rune-aware, unlike \b, so terms ending in an
// accented letter such as BAMBÚ are still removed cleanly. Removal
// repeats until stable because consecutive occurrences share the
// separator the first match consumes.
func removeTerm(text, term string) string {
	re := regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(term) + `($|[^\p{L}\p{N}_])`)
	for {
		next := re.ReplaceAllString(text, "${1}${2}")
		if next == text {
			return text
		}
		text = next
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
