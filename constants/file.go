package constants

import "strings"

// Source formats a document can be converted from.
const (
	PDF         = "PDF"
	IMAGE       = "IMAGE"
	SPREADSHEET = "SPREADSHEET"
)

// AllowedExtensions holds the file extensions accepted for upload.
var AllowedExtensions = map[string]string{
	"pdf":  PDF,
	"jpg":  IMAGE,
	"jpeg": IMAGE,
	"png":  IMAGE,
	"xlsx": SPREADSHEET,
	"xlsm": SPREADSHEET,
}

// AllowedMIMETypes mirrors the upload filter of the web client.
var AllowedMIMETypes = map[string]string{
	"application/pdf": PDF,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": SPREADSHEET,
	"image/jpeg": IMAGE,
	"image/png":  IMAGE,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the source format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) string {
	return AllowedExtensions[NormalizeExt(ext)]
}

// MapMIMEToFormat returns the source format for a declared MIME type, or "" when unsupported.
func MapMIMEToFormat(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return AllowedMIMETypes[mime]
}
