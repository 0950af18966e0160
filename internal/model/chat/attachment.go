package chat

import "strings"

// Attachment is a binary payload encoded for transport. Data holds the
// standard base64 encoding of the raw bytes without any data-URL prefix.
// PreviewURL is a process-local handle that must be revoked when the
// attachment is discarded or replaced.
type Attachment struct {
	Name       string `json:"name"`
	MIMEType   string `json:"mimeType"`
	Data       string `json:"data"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// IsImage reports whether the payload is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}
