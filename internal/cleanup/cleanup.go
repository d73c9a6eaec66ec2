// Package cleanup reduces an extraction result to the lists worth
// keeping: boilerplate sections are dropped and item text is normalized.
package cleanup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperifyio/wikilists/internal/extract"
)

// excluded lists, per base language, section titles whose lists are page
// furniture rather than content.
var excluded = map[string][]string{
	"en": {"References", "External links", "See also", "Notes", "Further reading", "Bibliography", "Sources", "Footnotes", "Citations", "Notes and references", "Works cited"},
	"it": {"Note", "Collegamenti esterni", "Voci correlate", "Bibliografia", "Altri progetti", "Fonti"},
	"de": {"Einzelnachweise", "Weblinks", "Literatur", "Siehe auch", "Anmerkungen", "Quellen"},
	"fr": {"Notes et références", "Liens externes", "Voir aussi", "Bibliographie", "Articles connexes", "Références", "Notes"},
	"es": {"Referencias", "Enlaces externos", "Véase también", "Bibliografía", "Notas"},
	"pt": {"Referências", "Ligações externas", "Ver também", "Bibliografia", "Notas"},
}

// Cleaner applies the cleanup policy of one language. It is safe for
// concurrent use.
type Cleaner struct {
	lang    string
	exclude map[string]bool
}

// New returns a Cleaner for lang. extra adds section titles to exclude.
func New(lang string, extra ...string) *Cleaner {
	base := BaseLanguage(lang)
	c := &Cleaner{lang: base, exclude: map[string]bool{}}
	fold := cases.Fold()
	for _, t := range excluded[base] {
		c.exclude[fold.String(t)] = true
	}
	for _, t := range extra {
		if t = strings.TrimSpace(t); t != "" {
			c.exclude[fold.String(t)] = true
		}
	}
	return c
}

// BaseLanguage returns the ISO 639 base of a wiki language code, or the
// lower-cased code itself when it is not a valid tag (e.g. "simple").
func BaseLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}

// Language returns the base language the cleaner was built for.
func (c *Cleaner) Language() string { return c.lang }

// Excluded reports whether a title path falls under a boilerplate section.
func (c *Cleaner) Excluded(path string) bool {
	fold := cases.Fold()
	for _, seg := range strings.Split(path, extract.TitleSeparator) {
		if c.exclude[fold.String(strings.TrimSpace(seg))] {
			return true
		}
	}
	return false
}

// Apply returns a cleaned copy of r; r itself is not modified.
func (c *Cleaner) Apply(r extract.Result) extract.Result {
	out := extract.NewResult()
	for _, title := range r.Titles {
		if c.Excluded(title) {
			continue
		}
		items := cleanItems(r.Lists[title])
		if len(items) == 0 {
			continue
		}
		out.Set(title, items)
	}
	return out
}

// Clean applies the default policy of lang to r.
func Clean(lang string, r extract.Result) extract.Result {
	return New(lang).Apply(r)
}

func cleanItems(items []extract.Item) []extract.Item {
	out := make([]extract.Item, 0, len(items))
	for _, it := range items {
		if it.IsNested() {
			nested := make([]string, 0, len(it.Nested))
			for _, s := range it.Nested {
				if s = CleanText(s); s != "" {
					nested = append(nested, s)
				}
			}
			if len(nested) > 0 {
				out = append(out, extract.Item{Nested: nested})
			}
			continue
		}
		if s := CleanText(it.Text); s != "" {
			out = append(out, extract.Item{Text: s})
		}
	}
	return out
}

// CleanText strips markup and normalizes whitespace in the text of one
// item. References are copied through untouched: each one, label and
// surrounding spaces included, still reads " {{label}} " afterwards.
func CleanText(s string) string {
	var b strings.Builder
	for {
		open := strings.Index(s, extract.ReferenceOpen)
		if open < 0 {
			break
		}
		end := strings.Index(s[open+len(extract.ReferenceOpen):], extract.ReferenceClose)
		if end < 0 {
			break
		}
		end += open + len(extract.ReferenceOpen)
		// the space on either side belongs to the reference
		b.WriteString(cleanSpan(strings.TrimSuffix(s[:open], " ")))
		b.WriteString(extract.FormatReference(s[open+len(extract.ReferenceOpen) : end]))
		s = strings.TrimPrefix(s[end+len(extract.ReferenceClose):], " ")
	}
	b.WriteString(cleanSpan(s))
	if strings.TrimSpace(b.String()) == "" {
		return ""
	}
	return b.String()
}

func cleanSpan(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = StripMarkup(s)
	}
	return collapseSpaces(strings.TrimSpace(s))
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
