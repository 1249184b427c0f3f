package extractor

import "regexp"

// sizeRule recognizes one spelling of a size and its canonical form.
// Rules that capture a leading guard character restore it through
// replacement when the size is cut out of the title.
type sizeRule struct {
	re          *regexp.Regexp
	normalized  string
	replacement string
}

// sizeRules in matching priority: 1.5 plaza spellings must come before
// the plain 1 plaza ones, which guard against matching the "1" inside
// "1.5". The first rule that matches names the size and every
// occurrence of that rule is removed from the title.
var sizeRules = []sizeRule{
	{re: regexp.MustCompile(`(?i)1[.,]5\s*PLAZAS?`), normalized: "1.5PLZ"},
	{re: regexp.MustCompile(`(?i)1[.,]5\s*PLZ`), normalized: "1.5PLZ"},
	{re: regexp.MustCompile(`(?i)1[.,]5PLZ`), normalized: "1.5PLZ"},
	{re: regexp.MustCompile(`(?i)(^|[^.,\d])1\s+PLAZAS?`), normalized: "1PLZ", replacement: "${1}"},
	{re: regexp.MustCompile(`(?i)(^|[^.,\d])1\s*PLAZA\b`), normalized: "1PLZ", replacement: "${1}"},
	{re: regexp.MustCompile(`(?i)\b1PLZ\b`), normalized: "1PLZ"},
	{re: regexp.MustCompile(`(?i)2\s*PLAZAS?`), normalized: "2PLZ"},
	{re: regexp.MustCompile(`(?i)\b2PLZ\b`), normalized: "2PLZ"},
	{re: regexp.MustCompile(`(?i)\bQUEEN\b`), normalized: "QUEEN"},
	{re: regexp.MustCompile(`(?i)\bKING\b`), normalized: "KING"},
	{re: regexp.MustCompile(`(?i)3\s*CUERPOS?`), normalized: "3C"},
	{re: regexp.MustCompile(`(?i)\b3C\b`), normalized: "3C"},
	{re: regexp.MustCompile(`(?i)2\s*CUERPOS?`), normalized: "2C"},
	{re: regexp.MustCompile(`(?i)\b2C\b`), normalized: "2C"},
	{re: regexp.MustCompile(`(?i)1\s*CUERPOS?`), normalized: "1C"},
	{re: regexp.MustCompile(`(?i)\b1C\b`), normalized: "1C"},
}

// extractSize finds the first size rule that matches and returns the
// canonical size along with the title text minus the size mention. An
// empty size means no rule matched and the text is returned as given.
func extractSize(text string) (string, string) {
	for _, rule := range sizeRules {
		if !rule.re.MatchString(text) {
			continue
		}
		without := rule.re.ReplaceAllString(text, rule.replacement)
		return rule.normalized, collapseSpaces(without)
	}
	return "", text
}
