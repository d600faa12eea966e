package render

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Ellipsis is appended after the last kept word
const Ellipsis = " …"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// TruncateWordsHTML keeps the first n words of an HTML fragment, counting
// only text content. Tags still open at the cut are closed so the result
// stays well formed. Fragments of n words or fewer are returned unchanged.
func TruncateWordsHTML(fragment string, n int) string {
	if n <= 0 {
		return ""
	}
	if countWords(fragment) <= n {
		return fragment
	}

	var out bytes.Buffer
	var open []string
	words := 0

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out.String()

		case html.TextToken:
			raw := z.Raw()
			cut, done := cutWords(raw, n-words)
			out.Write(raw[:cut])
			if done {
				out.WriteString(Ellipsis)
				for i := len(open) - 1; i >= 0; i-- {
					out.WriteString("</" + open[i] + ">")
				}
				return out.String()
			}
			words += wordsIn(raw)

		case html.StartTagToken:
			out.Write(z.Raw())
			name, _ := z.TagName()
			if tag := string(name); !voidElements[tag] {
				open = append(open, tag)
			}

		case html.EndTagToken:
			out.Write(z.Raw())
			name, _ := z.TagName()
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == string(name) {
					open = open[:i]
					break
				}
			}

		default:
			out.Write(z.Raw())
		}
	}
}

// cutWords returns the byte offset just past the want-th word of raw and
// whether that word was reached
func cutWords(raw []byte, want int) (int, bool) {
	count := 0
	inWord := false
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if unicode.IsSpace(r) {
			if inWord {
				inWord = false
				if count == want {
					return i, true
				}
			}
		} else if !inWord {
			inWord = true
			count++
		}
		i += size
	}
	if inWord && count == want {
		return len(raw), true
	}
	return len(raw), false
}

func wordsIn(raw []byte) int {
	return len(strings.Fields(string(raw)))
}

func countWords(fragment string) int {
	total := 0
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return total
		case html.TextToken:
			total += wordsIn(z.Raw())
		}
	}
}
