package render

import (
	"bufio"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders pages to a PDF file at path. It lays out the Markdown
// rendering line by line and does not attempt full Markdown layout.
func PDF(pages []Page, path string) error {
	return writeSimplePDF(Markdown(pages), path)
}

func writeSimplePDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; translate item text from UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		s := strings.TrimSpace(line)
		if s == "" {
			pdf.Ln(2)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 12.0
			if i == 1 {
				// one resource per page
				if !first {
					pdf.AddPage()
				}
				size = 16.0
			}
			first = false
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		if strings.HasPrefix(s, "- ") {
			indent := 4.0
			if strings.HasPrefix(line, "  ") {
				indent = 10.0
			}
			left, _, _, _ := pdf.GetMargins()
			pdf.SetX(left + indent)
			pdf.MultiCell(0, 5, tr("\u2022 "+strings.TrimPrefix(s, "- ")), "", "L", false)
			continue
		}
		pdf.MultiCell(0, 5, tr(strings.Trim(s, "_")), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
