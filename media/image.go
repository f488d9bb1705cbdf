// Package media resolves raw image uploads into durable URLs.
package media

import (
	"chat-dm/errors"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Image is a decoded upload whose content has been sniffed as an image.
type Image struct {
	Data []byte
	MIME *mimetype.MIME
}

// DataURI re-encodes the image for hosts that accept inline uploads.
func (i Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIME.String(), base64.StdEncoding.EncodeToString(i.Data))
}

// DecodeImage accepts a data URI ("data:image/png;base64,...") or a bare base64 payload.
// The declared media type is ignored: the content itself must be an image.
func DecodeImage(raw string, maxBytes int) (Image, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return Image{}, fmt.Errorf("%w: malformed data uri", errors.ErrMediaUpload)
		}
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: invalid base64: %v", errors.ErrMediaUpload, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty image", errors.ErrMediaUpload)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return Image{}, fmt.Errorf("%w: image is %d bytes, limit is %d", errors.ErrMediaUpload, len(data), maxBytes)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return Image{}, fmt.Errorf("%w: unsupported content type %s", errors.ErrMediaUpload, detected.String())
	}
	return Image{Data: data, MIME: detected}, nil
}
