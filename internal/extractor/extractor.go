package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kpauljoseph/pipespec/internal/classify"
	"github.com/kpauljoseph/pipespec/internal/dimensions"
	"github.com/kpauljoseph/pipespec/internal/mass"
	"github.com/kpauljoseph/pipespec/internal/pdf"
	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/models"
	"github.com/kpauljoseph/pipespec/pkg/utils"
)

const (
	DefaultMinRows        = 2
	DefaultHeaderScanRows = 5
	DefaultHeaderMarker   = "Наименование"
)

var quantityPattern = regexp.MustCompile(`\d+[.,]?\d*`)

type Settings struct {
	MinRows        int
	HeaderScanRows int
	HeaderMarker   string
	Density        float64
	Columns        *ColumnResolver
	Classifier     *classify.Classifier
	Dimensions     *dimensions.Extractor
}

func DefaultSettings() Settings {
	return Settings{
		MinRows:        DefaultMinRows,
		HeaderScanRows: DefaultHeaderScanRows,
		HeaderMarker:   DefaultHeaderMarker,
		Density:        mass.PE100Density,
		Columns:        NewColumnResolver(DefaultRules()),
		Classifier:     classify.Default,
		Dimensions:     dimensions.Default,
	}
}

// Extractor turns the specification tables of one PDF into records.
type Extractor struct {
	source   pdf.TableSource
	settings Settings
	marker   string
	logger   *logger.Logger
}

func New(source pdf.TableSource, settings Settings, logger *logger.Logger) *Extractor {
	return &Extractor{
		source:   source,
		settings: settings,
		marker:   NormalizeHeader(settings.HeaderMarker),
		logger:   logger,
	}
}

// ExtractFile reads every table of the document at pdfPath. Records are tagged
// with the file name without its extension.
func (e *Extractor) ExtractFile(ctx context.Context, pdfPath string) ([]models.Record, error) {
	tables, err := e.source.Tables(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract tables: %w", err)
	}

	e.logger.Debug("Found %d tables in %s", len(tables), pdfPath)
	return e.ExtractTables(utils.FileStem(pdfPath), tables), nil
}

func (e *Extractor) ExtractTables(sourceFile string, tables []models.Table) []models.Record {
	var records []models.Record
	for _, table := range tables {
		records = append(records, e.extractTable(sourceFile, table)...)
	}
	return records
}

func (e *Extractor) extractTable(sourceFile string, table models.Table) []models.Record {
	if len(table.Rows) < e.settings.MinRows {
		return nil
	}

	headerIdx := e.findHeader(table.Rows)
	if headerIdx < 0 {
		e.logger.Trace("Page %d table %d: no header row, skipping", table.Page, table.Index)
		return nil
	}

	cols := e.settings.Columns.Resolve(table.Rows[headerIdx])
	nameCol, ok := cols[FieldNomenclature]
	if !ok {
		e.logger.Trace("Page %d table %d: no nomenclature column, skipping", table.Page, table.Index)
		return nil
	}

	maxCol := 0
	for _, idx := range cols {
		if idx > maxCol {
			maxCol = idx
		}
	}

	var records []models.Record
	for _, row := range table.Rows[headerIdx+1:] {
		if len(row) <= maxCol {
			continue
		}

		nomenclature := strings.TrimSpace(row[nameCol])
		if nomenclature == "" {
			continue
		}
		if !e.settings.Classifier.IsPipeOrFitting(nomenclature) {
			continue
		}

		record := models.Record{
			SourceFile:   sourceFile,
			Nomenclature: nomenclature,
		}
		if idx, ok := cols[FieldQuantity]; ok {
			record.Quantity = ParseQuantity(row[idx])
		}
		if idx, ok := cols[FieldManufacturer]; ok {
			record.Manufacturer = strings.TrimSpace(row[idx])
		}
		record.Mass = e.pipeMass(nomenclature)

		records = append(records, record)
	}

	e.logger.Trace("Page %d table %d: %d records", table.Page, table.Index, len(records))
	return records
}

// findHeader returns the index of the first row, among the first
// HeaderScanRows, with a cell containing the header marker, or -1. Cells and
// marker are compared as normalized headers, so a marker hyphenated across
// lines still matches.
func (e *Extractor) findHeader(rows [][]string) int {
	if e.marker == "" {
		return -1
	}
	limit := e.settings.HeaderScanRows
	if limit > len(rows) {
		limit = len(rows)
	}
	for idx := 0; idx < limit; idx++ {
		for _, c := range rows[idx] {
			if strings.Contains(NormalizeHeader(c), e.marker) {
				return idx
			}
		}
	}
	return -1
}

func (e *Extractor) pipeMass(nomenclature string) *float64 {
	if !e.settings.Classifier.IsPipe(nomenclature) {
		return nil
	}
	dims, ok := e.settings.Dimensions.Extract(nomenclature)
	if !ok {
		return nil
	}
	m := mass.PerMeter(float64(dims.DiameterMM), dims.ThicknessMM, e.settings.Density)
	return &m
}

// ParseQuantity takes the first number out of a quantity cell such as
// "12,5 м" or "1 200". It returns nil when the cell holds no number.
func ParseQuantity(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)

	match := quantityPattern.FindString(s)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}
