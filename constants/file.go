package constants

import "strings"

// DocFormat is the coarse document format that drives cascade routing.
type DocFormat string

const (
	FormatImage DocFormat = "IMAGE"
	FormatPDF   DocFormat = "PDF"
	FormatText  DocFormat = "TEXT"
	FormatDocx  DocFormat = "DOCX"
)

var imageExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "webp": {}, "bmp": {}, "tif": {}, "tiff": {},
}

var textExtensions = map[string]struct{}{
	"txt": {}, "csv": {}, "json": {}, "xml": {}, "html": {}, "htm": {}, "md": {},
}

// AllowedExtensions holds every extension accepted at upload time.
var AllowedExtensions = map[string]struct{}{
	"pdf": {}, "png": {}, "jpg": {}, "jpeg": {}, "webp": {}, "bmp": {},
	"tif": {}, "tiff": {}, "docx": {}, "txt": {}, "csv": {}, "json": {},
	"xml": {}, "html": {}, "htm": {}, "md": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (normalized) names an image format.
func IsImageExt(ext string) bool {
	_, ok := imageExtensions[NormalizeExt(ext)]
	return ok
}

// IsTextExt reports whether ext (normalized) names a text-like format.
func IsTextExt(ext string) bool {
	_, ok := textExtensions[NormalizeExt(ext)]
	return ok
}

// IsAllowedExt reports whether ext (normalized) is accepted for upload.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
