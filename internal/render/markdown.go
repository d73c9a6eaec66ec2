// Package render turns extracted lists into documents for human review.
package render

import (
	"fmt"
	"strings"

	"github.com/hyperifyio/wikilists/internal/extract"
)

// Page is the extraction result of one resource.
type Page struct {
	Resource string
	Lang     string
	Lists    extract.Result
}

// Markdown renders pages as one document: a level-1 heading per resource,
// a level-2 heading per title path and a bullet per item. Nested groups
// are indented one level under the preceding item.
func Markdown(pages []Page) string {
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		title := strings.ReplaceAll(p.Resource, "_", " ")
		if p.Lang != "" {
			fmt.Fprintf(&b, "# %s (%s)\n", title, p.Lang)
		} else {
			fmt.Fprintf(&b, "# %s\n", title)
		}
		if p.Lists.Len() == 0 {
			b.WriteString("\n_No lists found._\n")
			continue
		}
		for _, path := range p.Lists.Titles {
			fmt.Fprintf(&b, "\n## %s\n\n", path)
			for _, it := range p.Lists.Lists[path] {
				if it.IsNested() {
					for _, s := range it.Nested {
						fmt.Fprintf(&b, "  - %s\n", itemText(s))
					}
					continue
				}
				fmt.Fprintf(&b, "- %s\n", itemText(it.Text))
			}
		}
	}
	return b.String()
}

func itemText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(empty)"
	}
	return s
}
