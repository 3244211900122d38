package constants

import "strings"

// DocumentKind says whether a staged document can carry a native text layer.
type DocumentKind string

const (
	PDF   DocumentKind = "PDF"   // text-bearing container, may still be a pure scan
	IMAGE DocumentKind = "IMAGE" // image-only container
)

// AllowedExtensions holds the file extensions accepted for claim documents.
var AllowedExtensions = map[string]DocumentKind{
	"pdf":  PDF,
	"png":  IMAGE,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"tif":  IMAGE,
	"tiff": IMAGE,
	"bmp":  IMAGE,
	"webp": IMAGE,
}

// SpreadsheetExtensions holds the extensions accepted by the bulk importer.
var SpreadsheetExtensions = map[string]struct{}{
	"xlsx": {},
	"xlsm": {},
	"csv":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// KindForExt maps an extension to its document kind; "" if unsupported.
func KindForExt(ext string) DocumentKind {
	return AllowedExtensions[NormalizeExt(ext)]
}
