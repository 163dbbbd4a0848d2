package batch

import (
	"context"
	"time"

	"github.com/kpauljoseph/pipespec/internal/classify"
	"github.com/kpauljoseph/pipespec/internal/pdf"
	"github.com/kpauljoseph/pipespec/internal/scanner"
	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/models"
	"github.com/kpauljoseph/pipespec/pkg/utils"
)

// RecordExtractor reads the pipe and fitting records of one document.
type RecordExtractor interface {
	ExtractFile(ctx context.Context, pdfPath string) ([]models.Record, error)
}

type Driver struct {
	scanner    *scanner.DirectoryScanner
	extractor  RecordExtractor
	classifier *classify.Classifier
	logger     *logger.Logger
}

func New(scanner *scanner.DirectoryScanner, extractor RecordExtractor, classifier *classify.Classifier, logger *logger.Logger) *Driver {
	if classifier == nil {
		classifier = classify.Default
	}
	return &Driver{
		scanner:    scanner,
		extractor:  extractor,
		classifier: classifier,
		logger:     logger,
	}
}

type Result struct {
	Records []models.Record
	Summary *Summary
}

// Run extracts records from every PDF directly inside dir, in name order.
// A document that fails is logged and counted; the remaining documents are
// still processed. Only an unreadable directory or a cancelled context
// stops the run.
func (d *Driver) Run(ctx context.Context, dir string) (*Result, error) {
	summary := &Summary{StartTime: time.Now()}

	d.logger.Info("Scanning directory: %s", dir)
	pdfs, err := d.scanner.FindPDFs(ctx, dir)
	if err != nil {
		return nil, err
	}

	d.logger.Info("Found %d PDFs to process", len(pdfs))
	summary.PDFCount = len(pdfs)

	var records []models.Record
	for _, file := range pdfs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d.logger.Info("Processing: %s", file.RelativePath)
		if d.logger.IsVerbose() {
			if pages, err := pdf.PageCount(file.AbsolutePath); err != nil {
				d.logger.Debug("Could not count pages of %s: %v", file.RelativePath, err)
			} else {
				d.logger.Debug("%s has %d pages", file.RelativePath, pages)
			}
		}

		found, err := d.extractor.ExtractFile(ctx, file.AbsolutePath)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			d.logger.Info("Error processing %s: %v", file.RelativePath, err)
			summary.FailedCount++
			summary.FailedFiles = append(summary.FailedFiles, file.RelativePath)
			continue
		}

		d.logger.Info("Found %d records in %s", len(found), file.RelativePath)
		records = append(records, found...)
	}

	summary.tally(records, d.classifier)
	summary.EndTime = time.Now()

	return &Result{
		Records: records,
		Summary: summary,
	}, nil
}

func (s *Summary) tally(records []models.Record, classifier *classify.Classifier) {
	s.RecordCount = len(records)
	for _, r := range records {
		if classifier.IsPipe(r.Nomenclature) {
			s.PipeCount++
		} else {
			s.FittingCount++
		}
		if r.HasMass() && r.Quantity != nil {
			s.TotalMassKg += *r.Mass * *r.Quantity
		}
	}
	s.Digest = utils.RecordsDigest(records)
}
