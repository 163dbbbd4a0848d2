package dimensions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kpauljoseph/pipespec/pkg/models"
)

// Pattern captures a diameter in group 1 and a wall thickness in group 2.
type Pattern struct {
	Name   string
	Regexp *regexp.Regexp
}

var (
	// SeparatorPattern matches "160 х9,50" with a Cyrillic х, Latin x or × sign.
	SeparatorPattern = Pattern{
		Name:   "separator",
		Regexp: regexp.MustCompile(`(\d+)\s*[хx×]\s*(\d+[,.]?\d*)`),
	}

	// DiameterSignPattern matches "∅160х23,7".
	DiameterSignPattern = Pattern{
		Name:   "diameter-sign",
		Regexp: regexp.MustCompile(`[∅Ø](\d+)[хx×](\d+[,.]?\d*)`),
	}
)

// Extractor tries its patterns in order. The first pattern that matches wins
// and only its first occurrence in the text is used.
type Extractor struct {
	patterns []Pattern
}

var Default = New(SeparatorPattern, DiameterSignPattern)

func New(patterns ...Pattern) *Extractor {
	return &Extractor{patterns: patterns}
}

func (e *Extractor) Extract(text string) (models.Dimensions, bool) {
	for _, p := range e.patterns {
		m := p.Regexp.FindStringSubmatch(text)
		if len(m) < 3 {
			continue
		}

		diameter, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		thickness, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
		if err != nil {
			continue
		}

		return models.Dimensions{DiameterMM: diameter, ThicknessMM: thickness}, true
	}

	return models.Dimensions{}, false
}

// Patterns returns the pattern names in evaluation order.
func (e *Extractor) Patterns() []string {
	names := make([]string, len(e.patterns))
	for i, p := range e.patterns {
		names[i] = p.Name
	}
	return names
}

func Extract(text string) (models.Dimensions, bool) {
	return Default.Extract(text)
}
