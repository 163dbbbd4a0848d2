package extractor

import (
	"strings"

	"github.com/kpauljoseph/pipespec/pkg/utils"
)

type Field string

const (
	FieldNomenclature Field = "nomenclature"
	FieldQuantity     Field = "quantity"
	FieldManufacturer Field = "manufacturer"
)

// ColumnRule maps a logical field to a predicate over header cell text. A
// header matches when it contains every AllOf term and, if AnyOf is set, at
// least one AnyOf term.
type ColumnRule struct {
	Field Field
	AllOf []string
	AnyOf []string
}

// ColumnResolver finds the column index of each field in a header row.
type ColumnResolver struct {
	rules []ColumnRule
}

// Columns holds resolved indices; a missing field is absent from the map.
type Columns map[Field]int

func DefaultRules() []ColumnRule {
	return []ColumnRule{
		{Field: FieldNomenclature, AllOf: []string{"наименование", "техническ"}},
		{Field: FieldQuantity, AnyOf: []string{"колич"}},
		{Field: FieldManufacturer, AnyOf: []string{"завод", "изготовитель"}},
	}
}

func NewColumnResolver(rules []ColumnRule) *ColumnResolver {
	normalized := make([]ColumnRule, len(rules))
	for i, r := range rules {
		normalized[i] = ColumnRule{
			Field: r.Field,
			AllOf: normalizeTerms(r.AllOf),
			AnyOf: normalizeTerms(r.AnyOf),
		}
	}
	return &ColumnResolver{rules: normalized}
}

// Resolve walks the header cells left to right. Each cell is claimed by the
// first rule it satisfies, and each field keeps the first cell that claimed it.
func (r *ColumnResolver) Resolve(header []string) Columns {
	cols := make(Columns)
	for idx, text := range header {
		h := NormalizeHeader(text)
		if h == "" {
			continue
		}
		for _, rule := range r.rules {
			if !rule.matches(h) {
				continue
			}
			if _, taken := cols[rule.Field]; !taken {
				cols[rule.Field] = idx
			}
			break
		}
	}
	return cols
}

func (rule ColumnRule) matches(header string) bool {
	if len(rule.AllOf) == 0 && len(rule.AnyOf) == 0 {
		return false
	}
	for _, term := range rule.AllOf {
		if !strings.Contains(header, term) {
			return false
		}
	}
	if len(rule.AnyOf) == 0 {
		return true
	}
	for _, term := range rule.AnyOf {
		if strings.Contains(header, term) {
			return true
		}
	}
	return false
}

// NormalizeHeader case folds header text and drops whitespace and hyphens, so
// "Завод-\nизготовитель" and "заводизготовитель" compare equal.
func NormalizeHeader(text string) string {
	folded := utils.FoldText(text)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '\u00a0', '\u00ad', '\u2010', '\u2011':
			return -1
		}
		return r
	}, folded)
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := NormalizeHeader(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
