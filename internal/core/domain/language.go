package domain

// Language is a listing-locale selector for bilingual group names.
type Language string

const (
	LanguageSwedish Language = "sv"
	LanguageEnglish Language = "en"
)

// ParseLanguage normalizes a query-string language value, defaulting to
// Swedish per §4.3's tagged_groups contract.
func ParseLanguage(value string) (Language, bool) {
	switch value {
	case "", string(LanguageSwedish):
		return LanguageSwedish, true
	case string(LanguageEnglish):
		return LanguageEnglish, true
	default:
		return "", false
	}
}
