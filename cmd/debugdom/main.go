// Command debugdom prints the title paths and flattened items of a stored
// converter response, for inspecting how a page is walked.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/hyperifyio/wikilists/internal/cleanup"
	"github.com/hyperifyio/wikilists/internal/extract"
	"github.com/hyperifyio/wikilists/internal/jsonpedia"
)

func main() {
	lang := flag.String("lang", "", "Apply the cleanup policy of this language")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: debugdom [-lang en] <response.json>")
		os.Exit(1)
	}
	if err := dump(os.Stdout, flag.Arg(0), *lang); err != nil {
		fmt.Fprintln(os.Stderr, "err:", err)
		os.Exit(2)
	}
}

func dump(w io.Writer, path, lang string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	nodes, err := jsonpedia.SectionsFrom(b)
	if err != nil {
		return err
	}
	res, err := extract.WalkRaw(nodes)
	if err != nil {
		return err
	}
	if lang != "" {
		res = cleanup.Clean(lang, res)
	}
	fmt.Fprintf(w, "%d nodes, %d lists, %d items\n", len(nodes), res.Len(), res.ItemCount())
	for _, title := range res.Titles {
		fmt.Fprintf(w, "\n[%s]\n", title)
		for i, it := range res.Lists[title] {
			if it.IsNested() {
				for _, s := range it.Nested {
					fmt.Fprintf(w, "  %d.  > %q\n", i+1, s)
				}
				continue
			}
			fmt.Fprintf(w, "  %d. %q\n", i+1, it.Text)
		}
	}
	return nil
}
