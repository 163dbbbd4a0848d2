package models

// Record is one pipe or fitting line item found in a source document.
type Record struct {
	SourceFile   string   `json:"source_file"`
	Nomenclature string   `json:"nomenclature"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Mass         *float64 `json:"mass,omitempty"`
	Manufacturer string   `json:"manufacturer"`
}

// HasMass reports whether a mass per metre was computed for the record.
func (r Record) HasMass() bool {
	return r.Mass != nil
}

// Dimensions is an outer diameter and wall thickness pair, both in millimetres.
type Dimensions struct {
	DiameterMM  int
	ThicknessMM float64
}

// Table is one ruled table found on a PDF page. Rows hold the cell text.
type Table struct {
	Page  int
	Index int
	Rows  [][]string
}

// Float returns a pointer to v. Handy for building records.
func Float(v float64) *float64 {
	return &v
}
