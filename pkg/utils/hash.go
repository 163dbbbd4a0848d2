package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/kpauljoseph/pipespec/pkg/models"
)

// RecordsDigest hashes the ordered record list. Two runs over the same input
// directory must produce the same digest.
func RecordsDigest(records []models.Record) string {
	hasher := sha256.New()
	for _, r := range records {
		fmt.Fprintf(hasher, "%s\x1f%s\x1f%s\x1f%s\x1f%s\x1e",
			r.SourceFile,
			r.Nomenclature,
			formatOptional(r.Quantity),
			formatOptional(r.Mass),
			r.Manufacturer,
		)
	}

	return hex.EncodeToString(hasher.Sum(nil))
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
