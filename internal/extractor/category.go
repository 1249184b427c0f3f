package extractor

import (
	"regexp"
	"slices"
	"strings"
)

// categoryRule matches one phrasing of a product type and names the
// base category it resolves to.
type categoryRule struct {
	re           *regexp.Regexp
	productType  string
	baseCategory string
}

// directRule matches a base category appearing on its own.
type directRule struct {
	re       *regexp.Regexp
	category string
}

// prefixScan detects a type prefix anywhere in a title so a direct
// category match can be qualified, as in "DORMITORIO ... BOXET".
type prefixScan struct {
	prefix string
	re     *regexp.Regexp
}

var (
	prefixedCategoryRules = buildPrefixedRules()
	directCategoryRules   = buildDirectRules()
	prefixScans           = buildPrefixScans()
)

// buildPrefixedRules assembles the ordered rule table for qualified
// category phrases. Irregular drawer and european-base phrasings sit
// on top because the generic prefix+category grid below would otherwise
// misread them. All patterns are ASCII and run against accent-stripped
// text.
func buildPrefixedRules() []categoryRule {
	rules := []categoryRule{
		{regexp.MustCompile(`(?i)\bKIT\s+DORMITORIO\s+.*?\bCON\s+CAJON(?:ES)?\b`), "KIT DORMITORIO CAJONES", "CAMA CAJONES"},
		{regexp.MustCompile(`(?i)\bDORMITORIO\s+CON\s+CAJON\b`), "DORMITORIO CON CAJONES", "CAMA CAJONES"},
		{regexp.MustCompile(`(?i)\bDORMITORIO\s+(?:AMERICANO|EUROPEO)?\s*CON\s+CAJON(?:ES)?\b`), "DORMITORIO CON CAJONES", "CAMA CAJONES"},
		{regexp.MustCompile(`(?i)\bKIT\s+BASE\s+CON\s+CAJON(?:ES)?\b`), "KIT BASE CAJONES", "BASE CAJONES"},
		{regexp.MustCompile(`(?i)\bBASE\s+.+?\bCON\s+(?:\d+\s+)?CAJON(?:ES)?\b`), "BASE CAJONES", "BASE CAJONES"},
		{regexp.MustCompile(`(?i)\bBASE\s+(?:\w+\s+)?BOX\s+EUROPEO\b`), "BASE BOX EUROPEO", "CAMA EUROPEA"},
	}

	// Prefix + category grid, e.g. "DORMITORIO BOXET". Combinations
	// where the category already begins with the prefix are skipped so
	// "CAMA EUROPEA" is not expanded into "CAMA CAMA EUROPEA".
	for _, prefix := range typePrefixes {
		for _, category := range baseCategories {
			if strings.HasPrefix(category, prefix) {
				continue
			}
			rules = append(rules, categoryRule{
				re:           compilePhrase(prefix + " " + category),
				productType:  prefix + " " + category,
				baseCategory: category,
			})
		}
	}

	// Prefix + variant qualifier, e.g. "DORMITORIO EUROPEO".
	for _, v := range categoryVariants {
		for _, prefix := range typePrefixes {
			rules = append(rules, categoryRule{
				re:           compilePhrase(prefix + " " + v.variant),
				productType:  prefix + " " + v.variant,
				baseCategory: v.baseCategory,
			})
		}
	}

	return rules
}

// buildDirectRules compiles the base categories longest first, so a
// title mentioning "BASE BOX TARIMA" is never shortened to "BOX TARIMA".
func buildDirectRules() []directRule {
	ordered := slices.Clone(baseCategories)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return len(b) - len(a)
	})

	rules := make([]directRule, 0, len(ordered))
	for _, category := range ordered {
		rules = append(rules, directRule{re: compilePhrase(category), category: category})
	}
	return rules
}

func buildPrefixScans() []prefixScan {
	scans := make([]prefixScan, 0, len(typePrefixes))
	for _, prefix := range typePrefixes {
		scans = append(scans, prefixScan{
			prefix: prefix,
			re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(prefix) + `\s+`),
		})
	}
	return scans
}

// compilePhrase builds a case-insensitive whole-phrase matcher.
func compilePhrase(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// extractCategory finds the product type and base category of a title.
// The title is accent-stripped first so "SOFÁ" and "SOFA" behave the
// same. Matching tries the irregular and prefixed rules, then direct
// category mentions qualified by any prefix found elsewhere in the
// title, then falls back to inferring from DORMITORIO, CAMA, or
// CONJUNTO context. Either value may come back empty.
func extractCategory(text string) (productType, baseCategory string) {
	stripped := stripAccents(text)

	for _, rule := range prefixedCategoryRules {
		if rule.re.MatchString(stripped) {
			return rule.productType, rule.baseCategory
		}
	}

	for _, rule := range directCategoryRules {
		if !rule.re.MatchString(stripped) {
			continue
		}
		prefix := ""
		for _, scan := range prefixScans {
			if scan.re.MatchString(stripped) {
				prefix = scan.prefix
				break
			}
		}
		if prefix != "" && !strings.HasPrefix(rule.category, prefix) {
			return prefix + " " + rule.category, rule.category
		}
		return rule.category, rule.category
	}

	// No explicit category. Infer what we can from context words.
	if strings.Contains(stripped, "DORMITORIO") {
		if strings.Contains(stripped, "EUROPEO") || strings.Contains(stripped, "EUROPEA") {
			return "DORMITORIO EUROPEO", "CAMA EUROPEA"
		}
		if strings.Contains(stripped, "AMERICANO") || strings.Contains(stripped, "AMERICANA") {
			return "DORMITORIO AMERICANO", "BOX TARIMA"
		}
		return "DORMITORIO", ""
	}

	if strings.Contains(stripped, "CAMA") {
		if strings.Contains(stripped, "CAJON") {
			return "CAMA CAJONES", "CAMA CAJONES"
		}
		if strings.Contains(stripped, "DIVAN") {
			return "CAMA DIVAN", "DIVAN"
		}
		return "CAMA", "CAMA"
	}

	if strings.Contains(stripped, "CONJUNTO") {
		return "CONJUNTO", "CONJUNTO"
	}

	return "", ""
}
