package cleanup

import (
	"reflect"
	"testing"

	"github.com/hyperifyio/wikilists/internal/extract"
)

func result(pairs ...any) extract.Result {
	r := extract.NewResult()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].([]extract.Item))
	}
	return r
}

func text(s ...string) []extract.Item {
	out := make([]extract.Item, 0, len(s))
	for _, v := range s {
		out = append(out, extract.Item{Text: v})
	}
	return out
}

func TestApply_DropsBoilerplateSections(t *testing.T) {
	in := result(
		"Albums", text("First", "Second"),
		"References", text("ref one"),
		"Discography - See also", text("other"),
		"EXTERNAL LINKS", text("link"),
	)
	got := New("en").Apply(in)
	if !reflect.DeepEqual(got.Titles, []string{"Albums"}) {
		t.Fatalf("titles: got %v", got.Titles)
	}
	if in.Len() != 4 {
		t.Fatalf("input mutated: %v", in.Titles)
	}
}

func TestApply_LanguageTables(t *testing.T) {
	in := result(
		"Opere", text("uno"),
		"Collegamenti esterni", text("link"),
		"Weblinks", text("link"),
	)
	got := Clean("it", in)
	if !reflect.DeepEqual(got.Titles, []string{"Opere", "Weblinks"}) {
		t.Fatalf("it titles: got %v", got.Titles)
	}
	got = Clean("de", in)
	if !reflect.DeepEqual(got.Titles, []string{"Opere", "Collegamenti esterni"}) {
		t.Fatalf("de titles: got %v", got.Titles)
	}
}

func TestApply_ExtraTitles(t *testing.T) {
	in := result("Albums", text("a"), "Tours", text("b"))
	got := New("en", "tours", "  ").Apply(in)
	if !reflect.DeepEqual(got.Titles, []string{"Albums"}) {
		t.Fatalf("titles: got %v", got.Titles)
	}
}

func TestApply_DropsEmptyItemsAndKeys(t *testing.T) {
	in := result(
		"Albums", []extract.Item{{Text: "  "}, {Text: "First"}, {Nested: []string{" ", ""}}, {Nested: []string{"Deluxe  edition"}}},
		"Empty", text(" ", "<br/>"),
	)
	got := Clean("en", in)
	want := []extract.Item{{Text: "First"}, {Nested: []string{"Deluxe edition"}}}
	if !reflect.DeepEqual(got.Titles, []string{"Albums"}) {
		t.Fatalf("titles: got %v", got.Titles)
	}
	if !reflect.DeepEqual(got.Lists["Albums"], want) {
		t.Fatalf("items: got %#v", got.Lists["Albums"])
	}
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"  padded\t text \n", "padded text"},
		{"The  {{Beatles}} - 1963  EMI ", "The {{Beatles}} - 1963 EMI"},
		{" {{Beatles}} ", " {{Beatles}} "},
		{"Help! {{Beatles}} ", "Help! {{Beatles}} "},
		{"a<br/>b", "a b"},
		{"x<ref>cite web</ref> y", "x y"},
		{"Simon &amp; Garfunkel", "Simon & Garfunkel"},
		{"<small>(live)</small>", "(live)"},
		{"non\u00a0breaking", "non breaking"},
		{"", ""},
		{" {{A}}  ", " {{A}} "},
		{"open {{ only", "open {{ only"},
	}
	for _, c := range cases {
		if got := CleanText(c.in); got != c.want {
			t.Errorf("CleanText(%q): got %q want %q", c.in, got, c.want)
		}
	}
}

// Reference labels and the spaces around them are never rewritten.
func TestCleanText_KeepsReferences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"x {{Foo  Bar}} y", "x {{Foo  Bar}} y"},
		{" {{A}}  {{B}} ", " {{A}}  {{B}} "},
		{"x {{R&amp;D}} y", "x {{R&amp;D}} y"},
		{"x {{a<b>c}} y", "x {{a<b>c}} y"},
		{"<small>see</small>  {{Beatles}}   and  more", "see {{Beatles}} and more"},
		{"a  &amp; {{B}}{{C}} ", "a & {{B}}  {{C}} "},
	}
	for _, c := range cases {
		if got := CleanText(c.in); got != c.want {
			t.Errorf("CleanText(%q): got %q want %q", c.in, got, c.want)
		}
	}
}

func TestStripMarkup_CommentsDropped(t *testing.T) {
	got := StripMarkup("a<!-- hidden -->b")
	if got != "ab" {
		t.Fatalf("got %q", got)
	}
}

func TestBaseLanguage(t *testing.T) {
	cases := map[string]string{
		"en":    "en",
		"EN":    "en",
		"pt-BR": "pt",
		" it ":  "it",
	}
	for in, want := range cases {
		if got := BaseLanguage(in); got != want {
			t.Errorf("BaseLanguage(%q): got %q want %q", in, got, want)
		}
	}
	if got := New("de-AT").Language(); got != "de" {
		t.Fatalf("Language: got %q", got)
	}
}
