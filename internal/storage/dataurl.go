package storage

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

// dataURLRegex matches data:image/<subtype>;base64,<payload>.
var dataURLRegex = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,(.+)$`)

// Image is a decoded data URL.
type Image struct {
	Subtype string // e.g. "png", "jpeg", "svg+xml"
	Data    []byte
	Raw     string // the data URL without surrounding whitespace
}

// ParseDataURL validates and decodes a data URL carrying an image.
func ParseDataURL(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	m := dataURLRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("%w: expected data:image/<type>;base64,<payload>", ErrInvalidImageFormat)
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not valid base64", ErrInvalidImageFormat)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImageFormat)
	}
	return &Image{
		Subtype: strings.ToLower(m[1]),
		Data:    data,
		Raw:     s,
	}, nil
}

// MIMEType returns the full media type, e.g. "image/png".
func (img *Image) MIMEType() string {
	return "image/" + img.Subtype
}

// Ext returns the file extension for the image subtype, including the dot.
func (img *Image) Ext() string {
	switch img.Subtype {
	case "jpeg", "pjpeg":
		return ".jpg"
	case "svg+xml":
		return ".svg"
	case "x-icon", "vnd.microsoft.icon":
		return ".ico"
	}
	ext := img.Subtype
	if i := strings.IndexAny(ext, "+."); i > 0 {
		ext = ext[:i]
	}
	return "." + ext
}
