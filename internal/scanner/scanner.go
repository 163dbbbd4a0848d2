package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/utils"
)

type PDFFile struct {
	AbsolutePath string
	RelativePath string
}

type DirectoryScanner struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *DirectoryScanner {
	return &DirectoryScanner{
		logger: logger,
	}
}

// FindPDFs lists the .pdf files directly inside dir, sorted by name.
// Subdirectories are not descended into. An unreadable directory is an error;
// a directory without PDFs is not.
func (s *DirectoryScanner) FindPDFs(ctx context.Context, dir string) ([]PDFFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("error resolving path %s: %w", dir, err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory %s: %w", dir, err)
	}

	s.logger.Debug("Scanning directory: %s", absDir)

	var pdfs []PDFFile
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(filepath.Join(absDir, entry.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		if !utils.IsPDF(entry.Name()) {
			continue
		}

		pdfs = append(pdfs, PDFFile{
			AbsolutePath: filepath.Join(absDir, entry.Name()),
			RelativePath: entry.Name(),
		})
		s.logger.Trace("Found PDF: %s", entry.Name())
	}

	sort.Slice(pdfs, func(i, j int) bool {
		return pdfs[i].RelativePath < pdfs[j].RelativePath
	})

	return pdfs, nil
}
