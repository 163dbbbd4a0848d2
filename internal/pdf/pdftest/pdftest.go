// Package pdftest writes small ruled-table PDFs for tests.
//
// Text is set in a Type0 font whose ToUnicode map sends every two-byte code
// to the same code point, so strings carry Cyrillic without an embedded font
// program.
package pdftest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/unicode"
)

const (
	fontResource = "F1"
	fontName     = "PipespecSans"

	// FontSize is the size of every string Table writes.
	FontSize = 8.0

	// Leading is the baseline distance between lines of one cell.
	Leading = 9.0
)

const toUnicodeCMap = `/CIDInit /ProcSet findresource begin
12 dict begin
begincmap
/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def
/CMapName /Adobe-Identity-UCS def
/CMapType 2 def
1 begincodespacerange
<0000> <FFFF>
endcodespacerange
1 beginbfrange
<0000> <FFFF> <0000>
endbfrange
endcmap
CMapName currentdict /CMap defineresource pop
end
end
`

// Ruling selects how Table draws the grid.
type Ruling int

const (
	// Framed draws every cell as its own rectangle (re).
	Framed Ruling = iota
	// Stroked draws every grid line as a moveto/lineto segment (m, l).
	Stroked
)

// Page is the content stream of one page.
type Page struct {
	buf bytes.Buffer
}

func NewPage() *Page {
	return &Page{}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (p *Page) op(format string, args ...interface{}) *Page {
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
	return p
}

// Text shows s with its baseline origin at (x, y).
func (p *Page) Text(x, y, size float64, s string) *Page {
	encoded, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().String(s)
	if err != nil {
		panic(fmt.Sprintf("pdftest: cannot encode %q: %v", s, err))
	}
	return p.op("BT /%s %s Tf %s %s Td <%X> Tj ET", fontResource, num(size), num(x), num(y), []byte(encoded))
}

// Rect strokes an axis-aligned rectangle.
func (p *Page) Rect(x, y, w, h float64) *Page {
	return p.op("%s %s %s %s re S", num(x), num(y), num(w), num(h))
}

// Line strokes a straight segment.
func (p *Page) Line(x0, y0, x1, y1 float64) *Page {
	return p.op("%s %s m %s %s l S", num(x0), num(y0), num(x1), num(y1))
}

// Transform saves the graphics state and concatenates [a b c d e f] to the CTM.
// Close it with Restore.
func (p *Page) Transform(a, b, c, d, e, f float64) *Page {
	return p.op("q %s %s %s %s %s %s cm", num(a), num(b), num(c), num(d), num(e), num(f))
}

func (p *Page) Restore() *Page {
	return p.op("Q")
}

// Table draws rows as a ruled grid hanging from top. xs are the column edges
// left to right. Each row is tall enough for its longest cell; "\n" in a cell
// starts a new line.
func (p *Page) Table(ruling Ruling, top float64, xs []float64, rows [][]string) *Page {
	ys := []float64{top}
	for _, row := range rows {
		lines := 1
		for _, c := range row {
			if n := strings.Count(c, "\n") + 1; n > lines {
				lines = n
			}
		}
		ys = append(ys, ys[len(ys)-1]-(Leading*float64(lines)+6))
	}

	switch ruling {
	case Framed:
		for i := 0; i+1 < len(ys); i++ {
			for j := 0; j+1 < len(xs); j++ {
				p.Rect(xs[j], ys[i+1], xs[j+1]-xs[j], ys[i]-ys[i+1])
			}
		}
	case Stroked:
		for _, y := range ys {
			p.Line(xs[0], y, xs[len(xs)-1], y)
		}
		for _, x := range xs {
			p.Line(x, ys[0], x, ys[len(ys)-1])
		}
	}

	for i, row := range rows {
		for j, c := range row {
			if j+1 >= len(xs) || c == "" {
				continue
			}
			for k, line := range strings.Split(c, "\n") {
				p.Text(xs[j]+3, ys[i]-10-Leading*float64(k), FontSize, line)
			}
		}
	}
	return p
}

func (p *Page) Bytes() []byte {
	return p.buf.Bytes()
}

// Write saves pages as an A4 document at path.
func Write(path string, pages ...*Page) error {
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	dim := types.PaperSize["A4"]
	ctx, err := pdfcpu.CreateContextWithXRefTable(conf, dim)
	if err != nil {
		return fmt.Errorf("failed to create PDF context: %w", err)
	}

	pagesIndRef, err := ctx.Pages()
	if err != nil {
		return err
	}
	pagesDict, err := ctx.DereferenceDict(*pagesIndRef)
	if err != nil {
		return err
	}

	fontIndRef, err := unicodeFont(ctx.XRefTable)
	if err != nil {
		return fmt.Errorf("failed to create font: %w", err)
	}

	mediaBox := types.RectForDim(dim.Width, dim.Height)
	for i, page := range pages {
		contentsIndRef, err := newStream(ctx.XRefTable, page.Bytes())
		if err != nil {
			return fmt.Errorf("failed to write page %d content: %w", i+1, err)
		}

		pageDict := types.Dict(
			map[string]types.Object{
				"Type":     types.Name("Page"),
				"Parent":   *pagesIndRef,
				"MediaBox": mediaBox.Array(),
				"Resources": types.Dict(
					map[string]types.Object{
						"Font": types.Dict(map[string]types.Object{fontResource: *fontIndRef}),
					},
				),
				"Contents": *contentsIndRef,
			},
		)

		indRef, err := ctx.IndRefForNewObject(pageDict)
		if err != nil {
			return err
		}
		if err := model.AppendPageTree(indRef, 1, pagesDict); err != nil {
			return err
		}
		ctx.PageCount++
	}

	if err := api.WriteContextFile(ctx, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newStream(xRefTable *model.XRefTable, content []byte) (*types.IndirectRef, error) {
	sd := types.NewStreamDict(types.NewDict(), 0, nil, nil, nil)
	sd.Content = content
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return xRefTable.IndRefForNewObject(sd)
}

func unicodeFont(xRefTable *model.XRefTable) (*types.IndirectRef, error) {
	cmapIndRef, err := newStream(xRefTable, []byte(toUnicodeCMap))
	if err != nil {
		return nil, err
	}

	descriptorIndRef, err := xRefTable.IndRefForNewObject(types.Dict(
		map[string]types.Object{
			"Type":        types.Name("FontDescriptor"),
			"FontName":    types.Name(fontName),
			"Flags":       types.Integer(32),
			"FontBBox":    types.NewIntegerArray(0, -200, 1000, 900),
			"ItalicAngle": types.Integer(0),
			"Ascent":      types.Integer(900),
			"Descent":     types.Integer(-200),
			"CapHeight":   types.Integer(700),
			"StemV":       types.Integer(80),
		},
	))
	if err != nil {
		return nil, err
	}

	cidFontIndRef, err := xRefTable.IndRefForNewObject(types.Dict(
		map[string]types.Object{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("CIDFontType2"),
			"BaseFont": types.Name(fontName),
			"CIDSystemInfo": types.Dict(
				map[string]types.Object{
					"Registry":   types.StringLiteral("Adobe"),
					"Ordering":   types.StringLiteral("Identity"),
					"Supplement": types.Integer(0),
				},
			),
			"FontDescriptor": *descriptorIndRef,
			"DW":             types.Integer(500),
			"CIDToGIDMap":    types.Name("Identity"),
		},
	))
	if err != nil {
		return nil, err
	}

	return xRefTable.IndRefForNewObject(types.Dict(
		map[string]types.Object{
			"Type":            types.Name("Font"),
			"Subtype":         types.Name("Type0"),
			"BaseFont":        types.Name(fontName),
			"Encoding":        types.Name("Identity-H"),
			"DescendantFonts": types.Array{*cidFontIndRef},
			"ToUnicode":       *cmapIndRef,
		},
	))
}
