package mapfile

import "strings"

const (
	languageSeparator = '\r'
	nameSeparator     = '\b'
)

// ExtractLanguage selects the name for the given language from a multilingual string.
//
// Multilingual strings have the form "base\rlang1\bname1\rlang2\bname2".
// An exact (case insensitive) language code match is preferred. Otherwise a group
// whose code has no region subtag and is a prefix of lang is used, so "zh" is used
// for "zh-Hans". If nothing matches the base name is returned.
func ExtractLanguage(s, lang string) string {
	if s == "" || strings.IndexByte(s, languageSeparator) < 0 {
		return s
	}

	groups := strings.Split(s, string(languageSeparator))
	if lang == "" {
		return groups[0]
	}

	var fallback string
	var hasFallback bool
	for _, group := range groups[1:] {
		i := strings.IndexByte(group, nameSeparator)
		if i < 0 {
			continue
		}
		code, name := group[:i], group[i+1:]

		if strings.EqualFold(code, lang) {
			return name
		}

		if !hasFallback && !strings.ContainsAny(code, "-_") && strings.ContainsAny(lang, "-_") &&
			strings.HasPrefix(strings.ToLower(lang), strings.ToLower(code)) {
			fallback, hasFallback = name, true
		}
	}

	if hasFallback {
		return fallback
	}
	return groups[0]
}
