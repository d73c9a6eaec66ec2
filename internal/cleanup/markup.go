package cleanup

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes inline HTML the converter leaves in text fragments
// (<br/>, <small>, <ref> bodies, comments) and decodes entities.
func StripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF at the end of input; anything else is unparseable
			// trailing markup which is dropped.
			return b.String()
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "ref", "script", "style":
				skip++
			case "br", "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "ref", "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li":
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte(' ')
			}
		}
	}
}
