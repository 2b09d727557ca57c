// Package i18n renders the user-facing error details of the API.
// Korean is the default language; English is served when Accept-Language asks for it.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a message in the catalog.
type Key string

const (
	UpstreamAuthFailed Key = "upstream_auth_failed"
	InternalError      Key = "internal_error"
	InvalidRequest     Key = "invalid_request"
	RateLimited        Key = "rate_limited"
)

var supported = []language.Tag{language.Korean, language.English}

var matcher = language.NewMatcher(supported)

var messages = map[Key]map[language.Tag]string{
	UpstreamAuthFailed: {
		language.Korean:  "구글 인증 실패: %s",
		language.English: "Google authentication failed: %s",
	},
	InternalError: {
		language.Korean:  "내부 서버 오류: %s",
		language.English: "Internal server error: %s",
	},
	InvalidRequest: {
		language.Korean:  "잘못된 요청: %s",
		language.English: "Invalid request: %s",
	},
	RateLimited: {
		language.Korean:  "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요",
		language.English: "Too many requests, please retry later",
	},
}

var cat = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Korean))
	for key, translations := range messages {
		for tag, msg := range translations {
			if err := b.SetString(tag, string(key), msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Match returns the supported language for an Accept-Language header value.
// Anything short of a high-confidence match gets Korean.
func Match(acceptLanguage string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, conf := matcher.Match(tags...)
	if conf < language.High {
		return language.Korean
	}
	return supported[idx]
}

// Printer returns a printer for an Accept-Language header value.
func Printer(acceptLanguage string) *message.Printer {
	return message.NewPrinter(Match(acceptLanguage), message.Catalog(cat))
}

// Sprintf formats the message for key in the language chosen by acceptLanguage.
func Sprintf(acceptLanguage string, key Key, args ...any) string {
	return Printer(acceptLanguage).Sprintf(string(key), args...)
}
