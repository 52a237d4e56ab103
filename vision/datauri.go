// Package vision recognizes food in photos and stores the photos.
package vision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

// Image is a decoded photo.
type Image struct {
	ContentType string
	Data        []byte
}

// DecodeDataURI parses "data:<mime>;base64,<payload>".
func DecodeDataURI(uri string) (Image, error) {
	meta, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(meta, "data:") {
		return Image{}, ErrInvalidDataURI
	}
	mediaType, encoding, _ := strings.Cut(strings.TrimPrefix(meta, "data:"), ";")
	if encoding != "base64" {
		return Image{}, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return Image{}, fmt.Errorf("%w: %q is not an image type", ErrInvalidDataURI, mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty image", ErrInvalidDataURI)
	}
	return Image{ContentType: mediaType, Data: data}, nil
}

// Ext returns a file extension for the image content type.
func (img Image) Ext() string {
	switch img.ContentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(img.ContentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(img.ContentType, "/"); ok {
		return "." + sub
	}
	return ""
}
