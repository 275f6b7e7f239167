package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gosimple/slug"

	"drinklog/internal/drinkstats"
	apperrors "drinklog/internal/errors"
	"drinklog/internal/models"
)

// Format is an export file type.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// ParseFormat accepts "xlsx" (the default when empty) and "pdf".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", apperrors.ErrUnsupportedFormat
}

// Options controls file naming and labels.
type Options struct {
	DisplayName string
	Locale      string
}

// File is a rendered export.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render dispatches to the renderer of format.
func Render(records []models.Drink, format Format, opts Options) (*File, error) {
	switch format {
	case FormatXLSX:
		return Workbook(records, opts)
	case FormatPDF:
		return PDF(records, opts)
	}
	return nil, apperrors.ErrUnsupportedFormat
}

// FileName builds "<name>_<label>_<first date>_<last date>.<ext>" from the
// non-empty dates of records. An empty display name becomes "User".
func FileName(displayName string, records []models.Drink, locale, ext string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "User"
	}
	parts := []string{name, LabelsFor(locale).FilePart}
	if min, max, ok := drinkstats.DateBounds(records); ok {
		parts = append(parts, min, max)
	}
	return strings.Join(parts, "_") + "." + ext
}

// ContentDisposition builds an attachment header with an ASCII fallback
// name and the exact UTF-8 name per RFC 5987.
func ContentDisposition(name string) string {
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	fallback := slug.Make(base)
	if fallback == "" {
		fallback = "export"
	}
	return fmt.Sprintf(`attachment; filename="%s%s"; filename*=UTF-8''%s`,
		fallback, ext, url.PathEscape(name))
}

func row(d models.Drink) []interface{} {
	return []interface{}{
		d.Date,
		d.Store,
		d.Item,
		d.PriceOrZero().InexactFloat64(),
		d.Ice,
		d.Sugar,
		d.Note,
	}
}
