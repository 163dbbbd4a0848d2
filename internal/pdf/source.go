package pdf

import (
	"context"

	"github.com/kpauljoseph/pipespec/pkg/models"
)

// TableSource yields the ruled tables of one PDF document, page by page.
type TableSource interface {
	Tables(ctx context.Context, pdfPath string) ([]models.Table, error)
}
