// Package document renders appeal letters for download and prepares uploaded PDFs
// for extraction.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres.
const (
	MarginMM     = 20.0
	LineHeightMM = 7.0
	FontSizePt   = 12.0
)

// RenderPDF lays the letter out on A4 pages in Helvetica. Lines wrap at the right
// margin and a page breaks at the bottom one. Runes outside Windows-1252 print as '.'.
func RenderPDF(w io.Writer, text string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(MarginMM, MarginMM, MarginMM)
	pdf.SetAutoPageBreak(true, MarginMM)
	pdf.SetCreator("dirigia", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", FontSizePt)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	pdf.MultiCell(0, LineHeightMM, tr(text), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	return nil
}
