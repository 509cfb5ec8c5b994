package constants

import "strings"

// AllowedExtensions holds the file extensions accepted by the upload endpoint.
// The pipeline itself only consumes extracted text; PDF text extraction is the
// file layer's job and anything already text is accepted as-is.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
	"txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
