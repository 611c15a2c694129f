package constants

import "strings"

// PDFExtension is the only file type the pending folder scan picks up.
const PDFExtension = "pdf"

// TextFileSuffix is appended to extracted full-text blob filenames.
const TextFileSuffix = "text"

// DefaultHexIDLength is the length of the per-run artifact token.
const DefaultHexIDLength = 8

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether the given filename has a .pdf extension.
func IsPDF(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	return NormalizeExt(name[i:]) == PDFExtension
}
