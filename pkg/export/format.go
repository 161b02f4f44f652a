package export

import (
	"io"
	"strings"

	"github.com/matzehuels/garmushka/pkg/errors"
)

// Format is an export format.
type Format string

// Export formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatPNG  Format = "png"
)

// Formats lists the supported formats.
func Formats() []Format { return []Format{FormatCSV, FormatJSON, FormatPNG} }

// ParseFormat parses a format name or file extension.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case FormatCSV, FormatJSON, FormatPNG:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Write writes p in format f. PNG renders sc with opts; the tabular
// formats ignore both.
func Write(w io.Writer, f Format, p Payload, sc Scene, opts RasterOptions) error {
	switch f {
	case FormatCSV:
		return WriteCSV(p, w, CSVOptions{BOM: true, Summary: true})
	case FormatJSON:
		return WriteJSON(p, w)
	case FormatPNG:
		return WritePNG(Render(sc, opts), w)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q", string(f))
}
