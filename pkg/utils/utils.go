package utils

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const PDFExtension = ".pdf"

// NormalizeText trims s and puts it in Unicode NFC form. PDF text layers often
// carry decomposed Cyrillic (й, ё) which would otherwise miss keyword matches.
func NormalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// FoldText returns the case folded NFC form of s. This is the single
// case-insensitive comparison policy used throughout the module.
func FoldText(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsPDF reports whether name carries the .pdf extension.
func IsPDF(name string) bool {
	return strings.HasSuffix(name, PDFExtension)
}
