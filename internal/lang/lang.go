// Package lang guesses the language of a chat message by counting script code points.
package lang

import "golang.org/x/text/language"

// Tags Detect can return.
var (
	English  = language.English
	Russian  = language.Russian
	Japanese = language.Japanese
	Korean   = language.Korean
	Chinese  = language.Chinese
	Arabic   = language.Arabic
)

// threshold is the number of script code points that must be exceeded.
const threshold = 3

// Detect returns ru, ja, ko, zh, ar or en.
func Detect(text string) language.Tag {
	var cyrillic, cjk, arabic int
	var kana, hangul bool
	for _, r := range text {
		switch {
		case isCyrillic(r):
			cyrillic++
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		}
		if isCJK(r) {
			cjk++
		}
		if r >= 0x3040 && r <= 0x30FF {
			kana = true
		}
		if (r >= 0x1100 && r <= 0x11FF) || (r >= 0xAC00 && r <= 0xD7AF) || (r >= 0x3130 && r <= 0x318F) {
			hangul = true
		}
	}

	switch {
	case cyrillic > threshold:
		return Russian
	case cjk > threshold:
		if kana {
			return Japanese
		}
		if hangul {
			return Korean
		}
		return Chinese
	case arabic > threshold:
		return Arabic
	}
	return English
}

// Code returns the base language subtag of Detect, e.g. "ru".
func Code(text string) string {
	base, _ := Detect(text).Base()
	return base.String()
}

func isCyrillic(r rune) bool {
	return (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я') || r == 'ё' || r == 'Ё'
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x30FF,
		r >= 0x3400 && r <= 0x4DBF,
		r >= 0x4E00 && r <= 0x9FFF,
		r >= 0xF900 && r <= 0xFAFF,
		r >= 0xFF66 && r <= 0xFF9F,
		r >= 0x3131 && r <= 0xD79D:
		return true
	}
	return false
}
