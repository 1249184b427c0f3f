package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// accessorySplitRegex splits a title into the main product and its
// bundled accessories at every "+" or standalone "CON".
var accessorySplitRegex = regexp.MustCompile(`(?i)\s*\+\s*|\s+CON\s+`)

// drawerPhraseRegex finds "CON CAJONES" phrases, including counted
// forms like "CON 2 CAJONES", that belong to the product type and must
// not be split off as accessories.
var drawerPhraseRegex = regexp.MustCompile(`(?i)\bCON\s+(?:\d+\s+)?CAJ[OÓ]N(?:ES)?\b`)

const drawerPlaceholder = "CONCAJONES_PLACEHOLDER"

// normalizeTitle uppercases a raw title and reduces it to letters,
// digits, spaces, and the separators that carry meaning: "+" between
// bundle items, "-" inside names, and ".," inside sizes like 1.5.
// Accented letters survive so accent-sensitive vocabulary still works.
func normalizeTitle(title string) string {
	s := strings.ToUpper(title)
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
		case r == '+' || r == '-' || r == '.' || r == ',':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return collapseSpaces(b.String())
}

// stripAccents decomposes accented characters and drops the combining
// marks, mapping CAJÓN to CAJON and FORLÍ to FORLI.
func stripAccents(s string) string {
	decomposed := norm.NFKD.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, decomposed)
}

// splitAccessories separates a normalized title into the main product
// description and the accessory descriptions that follow "+" or "CON"
// separators. Drawer phrases are protected first so "CAMA CON CAJONES"
// stays whole. When no separator is present the title comes back
// untouched with an empty accessory list.
func splitAccessories(title string) (string, []string) {
	protected := drawerPhraseRegex.ReplaceAllString(title, drawerPlaceholder)

	parts := accessorySplitRegex.Split(protected, -1)
	if len(parts) <= 1 {
		return title, []string{}
	}

	mainPart := strings.ReplaceAll(strings.TrimSpace(parts[0]), drawerPlaceholder, "CON CAJONES")

	accessories := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		part = strings.ReplaceAll(part, drawerPlaceholder, "CON CAJONES")
		if part = strings.TrimSpace(part); part != "" {
			accessories = append(accessories, part)
		}
	}

	return mainPart, accessories
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
