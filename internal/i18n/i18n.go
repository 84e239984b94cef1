// Package i18n maps rejection reasons to display strings.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"timeblock/internal/domain"
)

var supported = []language.Tag{
	language.English,
	language.Russian,
	language.Chinese,
}

var matcher = language.NewMatcher(supported)

// Supported returns the tags messages are registered for.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Default is used when nothing in Accept-Language matches.
func Default() language.Tag {
	return language.English
}

// Match picks the best supported tag for an Accept-Language value.
func Match(accept string) language.Tag {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return Default()
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default()
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supported[idx]
}

func reasonKey(r domain.Reason) string {
	return "reason." + string(r)
}

// Reason returns the display string for r in tag. Unknown reasons fall back
// to the code itself.
func Reason(tag language.Tag, r domain.Reason) string {
	return message.NewPrinter(tag).Sprintf(reasonKey(r))
}
