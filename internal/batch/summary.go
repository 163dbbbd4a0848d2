package batch

import (
	"time"

	"github.com/kpauljoseph/pipespec/internal/mass"
	"github.com/kpauljoseph/pipespec/pkg/logger"
)

type Summary struct {
	PDFCount     int
	FailedCount  int
	FailedFiles  []string
	RecordCount  int
	PipeCount    int
	FittingCount int

	// TotalMassKg sums mass per metre times quantity over the records that
	// carry both.
	TotalMassKg float64

	StartTime time.Time
	EndTime   time.Time
	Digest    string
}

func (s *Summary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

func (s *Summary) Print(log *logger.Logger) {
	log.Info("Processing complete:")
	log.Info("- Total PDFs found: %d", s.PDFCount)
	log.Info("- Failed PDFs: %d", s.FailedCount)
	for _, f := range s.FailedFiles {
		log.Info("  - %s", f)
	}
	log.Info("- Records extracted: %d (%d pipes, %d fittings)", s.RecordCount, s.PipeCount, s.FittingCount)
	log.Info("- Estimated pipe mass: %.2f kg", mass.Round2(s.TotalMassKg))
	log.Info("- Time taken: %v", s.Duration().Round(time.Millisecond))
	log.Debug("- Records digest: %s", s.Digest)
}
