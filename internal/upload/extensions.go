package upload

import "strings"

// DefaultContentType is stored for extensions missing from the content type table.
const DefaultContentType = "application/octet-stream"

// allowedExtensions is ordered as it is reported back to clients.
var allowedExtensions = []string{
	".txt", ".csv", ".json", ".xml", ".log", ".md", ".yaml", ".yml", ".ini", ".cfg", ".conf",
}

var contentTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".xml":  "application/xml",
	".log":  "text/plain",
	".md":   "text/markdown",
	".yaml": "application/x-yaml",
	".yml":  "application/x-yaml",
	".ini":  "text/plain",
	".cfg":  "text/plain",
	".conf": "text/plain",
}

// AllowedExtensions returns a copy of the extension allow-list.
func AllowedExtensions() []string {
	out := make([]string, len(allowedExtensions))
	copy(out, allowedExtensions)

	return out
}

// Extension returns the lowercase extension of filename including the leading
// dot, or an empty string when the name has no dot.
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}

	return "." + strings.ToLower(filename[idx+1:])
}

// IsAllowed reports whether ext is on the allow-list.
func IsAllowed(ext string) bool {
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return true
		}
	}

	return false
}

// ContentTypeFor maps an extension to the MIME type stored with the object.
func ContentTypeFor(ext string) string {
	if contentType, ok := contentTypes[ext]; ok {
		return contentType
	}

	return DefaultContentType
}
