package export

import (
	"fmt"
	"sync"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var headerFill = &props.Cell{BackgroundColor: &props.Color{Red: 221, Green: 235, Blue: 247}}

// pdfFontFamily is an embedded UTF-8 TrueType family. The PDF core fonts
// are cp1252 and have no glyphs for ı, İ, ş, Ş, ğ or Ğ.
const pdfFontFamily = "go"

var pdfFonts = sync.OnceValues(func() ([]*entity.CustomFont, error) {
	return repository.New().
		AddUTF8FontFromBytes(pdfFontFamily, fontstyle.Normal, goregular.TTF).
		AddUTF8FontFromBytes(pdfFontFamily, fontstyle.Bold, gobold.TTF).
		Load()
})

// PDF renders t as a landscape A4 table. The header row repeats on every
// page.
func PDF(t Table) ([]byte, error) {
	widths := t.Widths
	if len(widths) != len(t.Headers) {
		widths = make([]int, len(t.Headers))
		for i := range widths {
			widths[i] = 1
		}
	}
	grid := 0
	for _, w := range widths {
		grid += w
	}
	if grid == 0 {
		return nil, fmt.Errorf("pdf: table %q has no columns", t.Title)
	}

	fonts, err := pdfFonts()
	if err != nil {
		return nil, fmt.Errorf("pdf fonts: %w", err)
	}
	cfg := config.NewBuilder().
		WithCustomFonts(fonts).
		WithDefaultFont(&props.Font{Family: pdfFontFamily}).
		WithOrientation(orientation.Horizontal).
		WithMaxGridSize(grid).
		WithLeftMargin(8).
		WithTopMargin(8).
		WithRightMargin(8).
		Build()
	m := maroto.New(cfg)

	title := row.New(10).Add(text.NewCol(grid, t.Title, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Left}))
	head := tableRow(widths, toAny(t.Headers), props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Center, Top: 1}).WithStyle(headerFill)
	if err := m.RegisterHeader(title, head); err != nil {
		return nil, fmt.Errorf("pdf header: %w", err)
	}

	body := make([]core.Row, 0, len(t.Rows)+1)
	for _, r := range t.Rows {
		body = append(body, tableRow(widths, r, props.Text{Size: 7, Top: 1}))
	}
	if t.Footer != nil {
		body = append(body, tableRow(widths, t.Footer, props.Text{Size: 7, Style: fontstyle.Bold, Top: 1}))
	}
	m.AddRows(body...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf generate: %w", err)
	}
	return doc.GetBytes(), nil
}

func tableRow(widths []int, values []any, style props.Text) core.Row {
	cols := make([]core.Col, len(widths))
	for i, w := range widths {
		var v any
		if i < len(values) {
			v = values[i]
		}
		cols[i] = text.NewCol(w, cellText(v), style)
	}
	return row.New(6).Add(cols...)
}
