// Package capture extracts camera details from a photo's EXIF header.
package capture

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/photo-search/internal/photo"
)

// DefaultPrefixBytes is how much of the object is fetched to find the EXIF
// block. JPEG APP1 segments are limited to 64KiB.
const DefaultPrefixBytes = 64 * 1024

// Decode reads the capture fields it can find in r.
func Decode(r io.Reader) (*photo.Capture, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF: %w", err)
	}

	c := &photo.Capture{
		Make:     stringField(x, exif.Make),
		Model:    stringField(x, exif.Model),
		Software: stringField(x, exif.Software),
	}
	if taken, err := x.DateTime(); err == nil {
		c.TakenAt = taken.Format(time.RFC3339)
	}
	return c, nil
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// Reader decodes capture details from the leading bytes of an object.
type Reader struct {
	prefixBytes int64
	logger      *slog.Logger
}

// NewReader creates a Reader that looks for EXIF in the first prefixBytes of
// each object.
func NewReader(prefixBytes int64, logger *slog.Logger) *Reader {
	if prefixBytes <= 0 {
		prefixBytes = DefaultPrefixBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{prefixBytes: prefixBytes, logger: logger}
}

// PrefixBytes is how much of an object Read needs.
func (r *Reader) PrefixBytes() int64 {
	return r.prefixBytes
}

// Read returns the capture details in header, the start of the object at
// loc, or nil when there are none. A photo without an EXIF block is logged
// at debug.
func (r *Reader) Read(loc photo.Locator, header []byte) *photo.Capture {
	if int64(len(header)) > r.prefixBytes {
		header = header[:r.prefixBytes]
	}
	c, err := Decode(bytes.NewReader(header))
	if err != nil {
		r.logger.Debug("capture_exif_missing",
			slog.String("key", loc.Key),
			slog.String("error", err.Error()))
		return nil
	}
	if c.IsZero() {
		return nil
	}
	return c
}
