// Package i18n negotiates the display locale and holds the translated strings
// used by reports and notifications.
package i18n

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/deskflow/helpdesk/internal/domain"
)

var (
	supported = []language.Tag{language.Spanish, language.English}
	matcher   = language.NewMatcher(supported)
)

// Negotiate picks a locale from an explicit query value, falling back to an
// Accept-Language header and then to domain.DefaultLocale.
func Negotiate(explicit, acceptLanguage string) domain.Locale {
	if loc, ok := Parse(explicit); ok {
		return loc
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return domain.DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return domain.DefaultLocale
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return domain.DefaultLocale
	}
	return fromTag(supported[idx])
}

// Parse accepts BCP 47 tags such as "en", "en-US" or "es-MX".
func Parse(raw string) (domain.Locale, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return domain.LocaleEN, true
	case "es":
		return domain.LocaleES, true
	}
	return "", false
}

func fromTag(tag language.Tag) domain.Locale {
	if tag == language.English {
		return domain.LocaleEN
	}
	return domain.LocaleES
}
