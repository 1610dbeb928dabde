package morse

import "strings"

var reverse map[string]rune

func init() {
	reverse = make(map[string]rune, len(alphabet))
	for r, code := range alphabet {
		if r != ' ' {
			reverse[code] = r
		}
	}
}

// Decode turns Morse, raw or normalized, back into lowercase text.
// Unrecognized tokens decode as '?' like the Unknown prosign they stand for.
func Decode(code string) string {
	var b strings.Builder
	for i, word := range strings.Split(code, "/") {
		tokens := strings.Fields(word)
		if len(tokens) == 0 {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteRune(' ')
		}
		for _, token := range tokens {
			token = strings.ReplaceAll(token, "_", "")
			if r, ok := reverse[token]; ok {
				b.WriteRune(r)
			} else {
				b.WriteRune('?')
			}
		}
	}
	return b.String()
}
