package extractor

import (
	"regexp"
	"slices"
	"strings"
)

// brandRegex matches any known brand as a whole word, longest name
// first so "EL CISNE" wins over "CISNE".
var brandRegex = buildBrandRegex()

func buildBrandRegex() *regexp.Regexp {
	ordered := slices.Clone(brandNames)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return len(b) - len(a)
	})

	escaped := make([]string, 0, len(ordered))
	for _, name := range ordered {
		escaped = append(escaped, regexp.QuoteMeta(name))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// extractBrand finds the canonical brand for a title. The title is
// matched accent-stripped, so PARAÍSO and FORLÍ resolve to their plain
// spellings. A bare CISNE is folded into EL CISNE. When no known brand
// appears in the title, the brand reported by the catalog is used as a
// fallback, stripped and uppercased. Empty means no brand at all.
func extractBrand(text, existingBrand string) string {
	if m := brandRegex.FindStringSubmatch(stripAccents(text)); m != nil {
		brand := strings.ToUpper(m[1])
		if brand == "CISNE" {
			return "EL CISNE"
		}
		return brand
	}

	if existingBrand != "" {
		return stripAccents(strings.ToUpper(existingBrand))
	}

	return ""
}
