// Package document renders shopping lists for download.
package document

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/phpdave11/gofpdf"

	"foodgram/internal/model"
)

const (
	title      = "Shopping list"
	fontFamily = "listfont"
	lineHeight = 8.0
)

// FormatLine renders one aggregated ingredient.
func FormatLine(item model.ShoppingListItem) string {
	return fmt.Sprintf("- %s — %d %s", item.Name, item.Amount, item.MeasurementUnit)
}

// ShoppingListText renders items one per line. An empty list yields "".
func ShoppingListText(items []model.ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(FormatLine(item))
		b.WriteByte('\n')
	}
	return b.String()
}

// DejaVu Sans Condensed covers Latin, Cyrillic and Greek ingredient names.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	regularFont []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	boldFont []byte
)

// Renderer produces the PDF shopping list.
type Renderer struct {
	regular  []byte
	bold     []byte
	compress bool
}

// NewRenderer uses the bundled DejaVu font unless fontPath names a TTF to
// use for both weights instead.
func NewRenderer(fontPath string) (*Renderer, error) {
	r := &Renderer{regular: regularFont, bold: boldFont, compress: true}
	if fontPath == "" {
		return r, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read pdf font: %w", err)
	}
	r.regular, r.bold = font, font
	return r, nil
}

// ShoppingListPDF renders items as an A4 document. An empty list still
// produces a valid document holding only the title.
func (r *Renderer) ShoppingListPDF(items []model.ShoppingListItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)

	pdf.AddUTF8FontFromBytes(fontFamily, "", r.regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", r.bold)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load pdf font: %w", err)
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 12)
	for _, item := range items {
		pdf.CellFormat(0, lineHeight, FormatLine(item), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
