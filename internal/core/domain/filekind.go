package domain

import "path"

type FileKind string

const (
	FileKindPDF         FileKind = "pdf"
	FileKindCSV         FileKind = "csv"
	FileKindUnsupported FileKind = "unsupported"
)

// ClassifyFilename decides the handling class of an uploaded file from its
// extension alone. Matching is exact and case sensitive: "report.PDF" is
// unsupported. Only the final suffix counts, so "data.backup.csv" is a CSV.
func ClassifyFilename(filename string) FileKind {
	switch path.Ext(filename) {
	case ".pdf":
		return FileKindPDF
	case ".csv":
		return FileKindCSV
	default:
		return FileKindUnsupported
	}
}
