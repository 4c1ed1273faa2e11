package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casing is an identifier casing convention.
type Casing uint8

// Casings.
const (
	// CasePreserve keeps the schema name as is.
	CasePreserve Casing = iota
	// CasePascal is UpperCamelCase.
	CasePascal
	// CaseCamel is lowerCamelCase.
	CaseCamel
	// CaseSnake is snake_case.
	CaseSnake
	// CaseScreamingSnake is SCREAMING_SNAKE_CASE.
	CaseScreamingSnake
	// CaseKebab is kebab-case.
	CaseKebab
)

// acronyms are words rendered fully upper case in Pascal and camel casing
// when a convention enables it.
var acronyms = map[string]bool{
	"acl": true, "api": true, "ascii": true, "cpu": true, "css": true,
	"dns": true, "eof": true, "guid": true, "html": true, "http": true,
	"https": true, "id": true, "ip": true, "json": true, "jwt": true,
	"rpc": true, "sla": true, "smtp": true, "sql": true, "ssh": true,
	"tcp": true, "tls": true, "ttl": true, "udp": true, "uid": true,
	"uri": true, "url": true, "utf8": true, "uuid": true, "vm": true,
	"xml": true, "xsrf": true, "xss": true,
}

// ToCase converts a schema name to the given casing. With withAcronyms set,
// known acronyms are rendered upper case in Pascal and camel casing
// ("user_id" becomes "UserID"). The conversion is idempotent for every
// casing: ToCase(ToCase(s, c, a), c, a) == ToCase(s, c, a).
//
// Characters that cannot appear in identifiers act as word separators.
// A result starting with a digit gets an "X" prefix in Pascal casing and
// a "_" prefix otherwise.
func ToCase(s string, c Casing, withAcronyms bool) string {
	if c == CasePreserve {
		return s
	}
	words := splitWords(s)
	if len(words) == 0 {
		return "_"
	}
	var b strings.Builder
	switch c {
	case CasePascal:
		for _, w := range words {
			b.WriteString(pascalWord(w, withAcronyms))
		}
	case CaseCamel:
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			b.WriteString(pascalWord(w, withAcronyms))
		}
	case CaseSnake, CaseScreamingSnake, CaseKebab:
		sep := "_"
		if c == CaseKebab {
			sep = "-"
		}
		for i, w := range words {
			if i > 0 {
				b.WriteString(sep)
			}
			if c == CaseScreamingSnake {
				b.WriteString(strings.ToUpper(w))
			} else {
				b.WriteString(strings.ToLower(w))
			}
		}
	}
	out := b.String()
	if r := []rune(out); unicode.IsDigit(r[0]) {
		if c == CasePascal {
			return "X" + out
		}
		return "_" + out
	}
	return out
}

// Pascal converts s to UpperCamelCase with acronyms.
func Pascal(s string) string { return ToCase(s, CasePascal, true) }

// Camel converts s to lowerCamelCase with acronyms.
func Camel(s string) string { return ToCase(s, CaseCamel, true) }

// Snake converts s to snake_case.
func Snake(s string) string { return ToCase(s, CaseSnake, false) }

// Singular returns the singular form of the last word of a name, used to
// name anonymous list element types ("addresses" becomes "address").
func Singular(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return s
	}
	last := words[len(words)-1]
	single := inflect.Singularize(strings.ToLower(last))
	if single == "" || single == strings.ToLower(last) {
		return s
	}
	return strings.TrimSuffix(s, last) + matchCase(single, last)
}

// matchCase applies the case of the first rune of like to s.
func matchCase(s, like string) string {
	if s == "" || like == "" {
		return s
	}
	if unicode.IsUpper([]rune(like)[0]) {
		return title(s)
	}
	return s
}

// splitWords splits an identifier into words on separators, lower to
// upper transitions and acronym boundaries. A trailing "s" stays with a
// preceding upper case run ("IDs"). All upper case words made only of
// known acronyms are split into those acronyms ("APIURL").
func splitWords(s string) []string {
	runes := []rune(s)
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r):
			if len(cur) > 0 {
				prev := runes[i-1]
				switch {
				case unicode.IsLower(prev) || unicode.IsDigit(prev):
					flush()
				case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) && !pluralTail(runes, i+1):
					flush()
				}
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if parts := splitAcronyms(w); parts != nil {
			out = append(out, parts...)
			continue
		}
		out = append(out, w)
	}
	return out
}

// pluralTail reports if runes[i] is a lone "s" closing an upper case run.
func pluralTail(runes []rune, i int) bool {
	return runes[i] == 's' && (i+1 == len(runes) || !unicode.IsLower(runes[i+1]))
}

// splitAcronyms splits an all upper case word into known acronyms. It
// returns nil if w is not upper case, is a single acronym, or cannot be
// split completely.
func splitAcronyms(w string) []string {
	if len(w) < 4 || strings.ToUpper(w) != w || strings.ToLower(w) == w {
		return nil
	}
	if acronyms[strings.ToLower(w)] {
		return nil
	}
	var split func(rest string) []string
	split = func(rest string) []string {
		if rest == "" {
			return []string{}
		}
		for n := len(rest); n >= 2; n-- {
			if !acronyms[strings.ToLower(rest[:n])] {
				continue
			}
			if tail := split(rest[n:]); tail != nil {
				return append([]string{rest[:n]}, tail...)
			}
		}
		return nil
	}
	return split(w)
}

// pascalWord capitalizes a single word.
func pascalWord(w string, withAcronyms bool) string {
	lw := strings.ToLower(w)
	if withAcronyms {
		if acronyms[lw] {
			return strings.ToUpper(lw)
		}
		if n := len(lw); n > 2 && lw[n-1] == 's' && acronyms[lw[:n-1]] {
			return strings.ToUpper(lw[:n-1]) + "s"
		}
	}
	return title(lw)
}

// title upper-cases the first letter of a lower case word. Casers are not
// safe for concurrent use, so one is created per call.
func title(w string) string {
	return cases.Title(language.Und, cases.NoLower).String(w)
}
