package analyze

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is an attached file with the metadata that goes into the multipart part header.
type Upload struct {
	Name string
	MIME string
	Data []byte
}

// NewUpload keeps the explicit MIME when given, otherwise sniffs it from the bytes.
// An empty name becomes "blob", like an unnamed browser Blob.
func NewUpload(name, explicitMIME string, data []byte) *Upload {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = defaultUploadName
	}
	return &Upload{
		Name: name,
		MIME: PickMIME(explicitMIME, data),
		Data: data,
	}
}

// PickMIME: explicit value first, then detection by magic bytes.
func PickMIME(explicit string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	return mimetype.Detect(data).String()
}

// IsImage reports whether the upload looks like an image/* payload.
// Front-ends use it to restrict what they accept; the client sends whatever it gets.
func (u *Upload) IsImage() bool {
	if u == nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(u.MIME), "image/") {
		return true
	}
	return strings.HasPrefix(mimetype.Detect(u.Data).String(), "image/")
}
