package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/models"
)

var ErrNoRecords = errors.New("no records to write")

// Headers are the fixed report columns: file, nomenclature, quantity, mass
// and manufacturer plant.
var Headers = []string{"Файл", "Номенклатура", "Количество", "Масса", "Завод изготовитель"}

const (
	headerFill = "4472C4"
	bannerFill = "D3D3D3"
	lastColumn = "E"
)

type ColumnWidths struct {
	File         float64
	Nomenclature float64
	Quantity     float64
	Mass         float64
	Manufacturer float64
}

type Layout struct {
	SheetName string
	Widths    ColumnWidths
}

func DefaultLayout() Layout {
	return Layout{
		SheetName: "Спецификация",
		Widths: ColumnWidths{
			File:         30,
			Nomenclature: 70,
			Quantity:     15,
			Mass:         15,
			Manufacturer: 25,
		},
	}
}

type Writer struct {
	layout Layout
	logger *logger.Logger
}

func NewWriter(layout Layout, logger *logger.Logger) *Writer {
	return &Writer{
		layout: layout,
		logger: logger,
	}
}

type styles struct {
	header int
	banner int
	plain  int
	left   int
	center int
}

// Write renders records into a workbook at outputPath, replacing any file
// already there. It writes nothing and returns ErrNoRecords for an empty list.
func (w *Writer) Write(records []models.Record, outputPath string) error {
	if len(records) == 0 {
		w.logger.Warn("No data to write, skipping %s", outputPath)
		return ErrNoRecords
	}

	f, err := w.Build(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Excel file saved: %s", outputPath)
	w.logger.Info("Total rows: %d", len(records))
	return nil
}

// Build lays out the workbook in memory. The caller closes the returned file.
func (w *Writer) Build(records []models.Record) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := w.build(f, records); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (w *Writer) build(f *excelize.File, records []models.Record) error {
	sheet := w.layout.SheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastColumn+"1", st.header); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	row := 2
	current := ""
	for i, r := range records {
		if i == 0 || r.SourceFile != current {
			if i > 0 {
				row++
			}
			current = r.SourceFile
			if err := w.writeBanner(f, sheet, row, current, st); err != nil {
				return err
			}
			row++
		}

		if err := w.writeRecord(f, sheet, row, r, st); err != nil {
			return err
		}
		row++
	}

	return w.finishSheet(f, sheet)
}

func (w *Writer) writeBanner(f *excelize.File, sheet string, row int, sourceFile string, st styles) error {
	first := fmt.Sprintf("A%d", row)
	last := fmt.Sprintf("%s%d", lastColumn, row)

	if err := f.SetCellValue(sheet, first, sourceFile); err != nil {
		return fmt.Errorf("failed to write banner %q: %w", sourceFile, err)
	}
	if err := f.MergeCell(sheet, first, last); err != nil {
		return fmt.Errorf("failed to merge banner %q: %w", sourceFile, err)
	}
	if err := f.SetCellStyle(sheet, first, last, st.banner); err != nil {
		return fmt.Errorf("failed to style banner %q: %w", sourceFile, err)
	}
	return nil
}

func (w *Writer) writeRecord(f *excelize.File, sheet string, row int, r models.Record, st styles) error {
	cell := func(col string) string { return fmt.Sprintf("%s%d", col, row) }

	values := map[string]interface{}{
		"B": r.Nomenclature,
		"E": r.Manufacturer,
	}
	if r.Quantity != nil {
		values["C"] = *r.Quantity
	}
	if r.Mass != nil {
		values["D"] = *r.Mass
	}

	for col, v := range values {
		if err := f.SetCellValue(sheet, cell(col), v); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	for _, s := range []struct {
		from, to string
		style    int
	}{
		{"A", "A", st.plain},
		{"B", "B", st.left},
		{"C", lastColumn, st.center},
	} {
		if err := f.SetCellStyle(sheet, cell(s.from), cell(s.to), s.style); err != nil {
			return fmt.Errorf("failed to style row %d: %w", row, err)
		}
	}
	return nil
}

func (w *Writer) finishSheet(f *excelize.File, sheet string) error {
	widths := []struct {
		col   string
		width float64
	}{
		{"A", w.layout.Widths.File},
		{"B", w.layout.Widths.Nomenclature},
		{"C", w.layout.Widths.Quantity},
		{"D", w.layout.Widths.Mass},
		{"E", w.layout.Widths.Manufacturer},
	}
	for _, cw := range widths {
		if err := f.SetColWidth(sheet, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", cw.col, err)
		}
	}

	err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}

	var st styles
	defs := []struct {
		id    *int
		style *excelize.Style
	}{
		{&st.header, &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Alignment: center,
			Border:    border,
		}},
		{&st.banner, &excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{bannerFill}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: left,
			Border:    border,
		}},
		{&st.plain, &excelize.Style{Border: border}},
		{&st.left, &excelize.Style{Border: border, Alignment: left}},
		{&st.center, &excelize.Style{Border: border, Alignment: center}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, fmt.Errorf("failed to create style: %w", err)
		}
		*d.id = id
	}
	return st, nil
}
