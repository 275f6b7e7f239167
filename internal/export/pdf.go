package export

import (
	"fmt"
	"strings"

	"github.com/gosimple/unidecode"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"drinklog/internal/drinkstats"
	apperrors "drinklog/internal/errors"
	"drinklog/internal/models"
)

// pdfColumns sizes the seven columns on maroto's 12-column grid.
var pdfColumns = [7]int{2, 2, 2, 1, 1, 1, 3}

// PDF renders records as a table report. The built-in PDF fonts only cover
// latin text, so labels are English and cell text is transliterated.
func PDF(records []models.Drink, opts Options) (*File, error) {
	if len(records) == 0 {
		return nil, apperrors.ErrNothingToExport
	}
	lbl := LabelsFor(LocaleEn)

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	name := strings.TrimSpace(opts.DisplayName)
	if name == "" {
		name = "User"
	}
	m.AddRow(14,
		text.NewCol(12, "Drink log - "+latin(name), props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	if min, max, ok := drinkstats.DateBounds(records); ok {
		m.AddRow(8,
			text.NewCol(12, fmt.Sprintf("%s to %s, %d records", min, max, len(records)), props.Text{Size: 9}),
		)
	}

	header := make([]core.Col, 0, len(lbl.Columns))
	for i, c := range lbl.Columns {
		header = append(header, text.NewCol(pdfColumns[i], c, props.Text{Style: fontstyle.Bold, Size: 9, Align: cellAlign(i)}))
	}
	m.AddRow(10, header...)

	for _, d := range records {
		cells := []string{
			d.Date,
			latin(d.Store),
			latin(d.Item),
			d.PriceOrZero().String(),
			latin(d.Ice),
			latin(d.Sugar),
			latin(d.Note),
		}
		cols := make([]core.Col, 0, len(cells))
		for i, v := range cells {
			cols = append(cols, text.NewCol(pdfColumns[i], v, props.Text{Size: 8, Align: cellAlign(i)}))
		}
		m.AddRow(8, cols...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return &File{
		Name:        FileName(opts.DisplayName, records, opts.Locale, string(FormatPDF)),
		ContentType: FormatPDF.ContentType(),
		Data:        doc.GetBytes(),
	}, nil
}

func cellAlign(col int) align.Type {
	if col == 3 {
		return align.Right
	}
	return align.Left
}

func latin(s string) string {
	return strings.TrimSpace(unidecode.Unidecode(s))
}
