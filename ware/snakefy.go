package ware

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Snakefy converts a camel-case name to snake case, starting a new word before every upper-case rune.
//
//	Snakefy("HTTPServer") // "h_t_t_p_server"
//	Snakefy("userID")     // "user_i_d"
func Snakefy(camel string) string {
	var words []string

	var word strings.Builder
	for i, r := range camel {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, word.String())
			word.Reset()
		}
		word.WriteRune(r)
	}

	if word.Len() > 0 {
		words = append(words, word.String())
	}

	return cases.Lower(language.Und).String(strings.Join(words, "_"))
}
