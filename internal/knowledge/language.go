package knowledge

import "strings"

// Language is a supported response language.
type Language string

const (
	Malay   Language = "ms"
	English Language = "en"
)

// ParseLanguage accepts "ms" or "en" in any case.
func ParseLanguage(s string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case Malay:
		return Malay, true
	case English:
		return English, true
	}
	return "", false
}

// Other returns the fallback language for table lookups.
func (l Language) Other() Language {
	if l == English {
		return Malay
	}
	return English
}

// Text is a string available in both languages.
type Text struct {
	EN string
	MS string
}

// In picks the variant for lang, falling back to the other language when
// the requested one is empty.
func (t Text) In(lang Language) string {
	if lang == English {
		if t.EN != "" {
			return t.EN
		}
		return t.MS
	}
	if t.MS != "" {
		return t.MS
	}
	return t.EN
}
