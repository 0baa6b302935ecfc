package domain

// Locale selects the language used for display labels.
type Locale string

const (
	LocaleES Locale = "es"
	LocaleEN Locale = "en"
)

// DefaultLocale is used when nothing better can be negotiated.
const DefaultLocale = LocaleES

// Valid reports whether the locale is supported.
func (l Locale) Valid() bool {
	return l == LocaleES || l == LocaleEN
}

// OrDefault returns l when valid, otherwise DefaultLocale.
func (l Locale) OrDefault() Locale {
	if l.Valid() {
		return l
	}
	return DefaultLocale
}

// localized holds the Spanish and English variants of a label.
type localized struct {
	es string
	en string
}

func (l localized) in(loc Locale) string {
	if loc == LocaleEN {
		return l.en
	}
	return l.es
}
