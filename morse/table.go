// Package morse converts text to International Morse code and turns Morse
// strings into timed tone instructions.
package morse

import (
	"sort"
	"strings"
)

// Unknown is sent for any character missing from the table.
const Unknown = "..--.."

var alphabet = map[rune]string{
	' ':  "/",
	'a':  ".-",
	'b':  "-...",
	'c':  "-.-.",
	'd':  "-..",
	'e':  ".",
	'f':  "..-.",
	'g':  "--.",
	'h':  "....",
	'i':  "..",
	'j':  ".---",
	'k':  "-.-",
	'l':  ".-..",
	'm':  "--",
	'n':  "-.",
	'o':  "---",
	'p':  ".--.",
	'q':  "--.-",
	'r':  ".-.",
	's':  "...",
	't':  "-",
	'u':  "..-",
	'v':  "...-",
	'w':  ".--",
	'x':  "-..-",
	'y':  "-.--",
	'z':  "--..",
	'0':  "-----",
	'1':  ".----",
	'2':  "..---",
	'3':  "...--",
	'4':  "....-",
	'5':  ".....",
	'6':  "-....",
	'7':  "--...",
	'8':  "---..",
	'9':  "----.",
	'.':  ".-.-.-",
	',':  "--..--",
	':':  "---...",
	'?':  "..--..",
	'\'': ".----.",
	'-':  "-....-",
	'/':  "-..-.",
	'"':  ".-..-.",
	'@':  ".--.-.",
	'=':  "-...-",
	'!':  "---.",
}

// Encode translates text to Morse, one token per character separated by
// spaces. Spaces become "/" and unmapped characters become Unknown.
func Encode(text string) string {
	lower := strings.ToLower(text)
	tokens := make([]string, 0, len(lower))
	for _, r := range lower {
		tokens = append(tokens, Lookup(r))
	}
	return strings.Join(tokens, " ")
}

// Lookup returns the Morse token for a single lowercase rune.
func Lookup(r rune) string {
	if code, ok := alphabet[r]; ok {
		return code
	}
	return Unknown
}

// Entry is one row of the alphabet.
type Entry struct {
	Char rune
	Code string
}

// Entries returns the alphabet ordered by character.
func Entries() []Entry {
	entries := make([]Entry, 0, len(alphabet))
	for r, code := range alphabet {
		entries = append(entries, Entry{Char: r, Code: code})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Char < entries[j].Char })
	return entries
}
