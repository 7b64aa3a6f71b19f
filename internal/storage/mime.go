package storage

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// contentType picks the Content-Type stored with an object: the registered
// type for the key's extension, or a sniff of the payload otherwise.
func contentType(key string, data []byte) string {
	if ext := filepath.Ext(key); ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(data).String()
}
