// Package mass computes the linear mass of thermoplastic pipes (ГОСТ 18599-2001).
package mass

import "math"

// PE100Density is the density of PE100 polyethylene in g/cm³.
const PE100Density = 0.96

// PerMeter returns the mass of one metre of pipe in kilograms, rounded to two
// decimals. Diameter and thickness are in millimetres, density in g/cm³.
// Inputs are not validated; thickness >= diameter yields a meaningless value.
func PerMeter(diameterMM, thicknessMM, density float64) float64 {
	return Round2(math.Pi * (diameterMM - thicknessMM) * thicknessMM * density / 1000)
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
