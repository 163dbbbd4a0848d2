package pdf

import (
	"context"
	"fmt"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"

	"github.com/kpauljoseph/pipespec/pkg/logger"
	"github.com/kpauljoseph/pipespec/pkg/models"
)

// DocumentSource reads tables straight from the PDF text layer and its stroked
// or filled paths. Positions are taken in device space, so grids drawn under a
// cm transform line up with their text. Scanned documents without a text layer
// yield no tables.
type DocumentSource struct {
	options GridOptions
	logger  *logger.Logger
}

func NewDocumentSource(options GridOptions, logger *logger.Logger) *DocumentSource {
	return &DocumentSource{
		options: options,
		logger:  logger,
	}
}

func (s *DocumentSource) Tables(ctx context.Context, pdfPath string) (tables []models.Table, err error) {
	// The parser panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			tables = nil
			err = fmt.Errorf("failed to parse PDF %s: %v", pdfPath, r)
		}
	}()

	r, err := reader.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer r.Close()

	numPages, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("failed to read page tree: %w", err)
	}
	s.logger.Debug("Reading %d pages from %s", numPages, pdfPath)

	for i := 0; i < numPages; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageNum := i + 1
		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", pageNum, err)
		}

		glyphs, boxes, err := pageContent(r, page)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageNum, err)
		}

		pageTables := BuildTables(glyphs, boxes, s.options)
		s.logger.Trace("Page %d: %d text runs, %d rulings, %d tables", pageNum, len(glyphs), len(boxes), len(pageTables))

		for idx, rows := range pageTables {
			tables = append(tables, models.Table{
				Page:  pageNum,
				Index: idx,
				Rows:  rows,
			})
		}
	}

	return tables, nil
}

func pageContent(r *reader.Reader, page *pages.Page) ([]Glyph, []Box, error) {
	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, nil, err
	}

	glyphs := make([]Glyph, 0, len(fragments))
	for _, f := range fragments {
		glyphs = append(glyphs, Glyph{
			X:    f.X,
			Y:    f.Y,
			W:    f.Width,
			Size: f.FontSize,
			S:    f.Text,
		})
	}

	data, err := contentBytes(page)
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return glyphs, nil, nil
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(data); err != nil {
		return nil, nil, fmt.Errorf("failed to read paths: %w", err)
	}

	return glyphs, rulings(ge), nil
}

func contentBytes(page *pages.Page) ([]byte, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, err
	}

	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode content stream: %w", err)
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}

// rulings turns the page's straight strokes into zero-thickness boxes and
// keeps painted rectangles as they are. Rectangles skip the extractor's size
// filter: rules are often filled rectangles thinner than one point.
func rulings(ge *graphicsstate.GraphicsExtractor) []Box {
	grid := ge.GetGridLines()
	rects := ge.GetRectangles()

	boxes := make([]Box, 0, len(grid.Horizontals)+len(grid.Verticals)+len(rects))
	for _, lines := range [][]graphicsstate.ExtractedLine{grid.Horizontals, grid.Verticals} {
		for _, l := range lines {
			boxes = append(boxes, Box{X0: l.Start.X, Y0: l.Start.Y, X1: l.End.X, Y1: l.End.Y})
		}
	}
	for _, rect := range rects {
		b := rect.BBox
		boxes = append(boxes, Box{X0: b.X, Y0: b.Y, X1: b.X + b.Width, Y1: b.Y + b.Height})
	}
	return boxes
}
