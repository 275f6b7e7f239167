// Package export renders drink records as downloadable spreadsheet and PDF
// files.
package export

import "strings"

// Supported locales.
const (
	LocaleZhTW = "zh-TW"
	LocaleEn   = "en"
)

// Labels localises the sheet name, file-name segment and column headers.
type Labels struct {
	Sheet    string
	FilePart string
	Columns  [7]string
}

var labels = map[string]Labels{
	LocaleZhTW: {
		Sheet:    "飲料紀錄",
		FilePart: "飲料紀錄",
		Columns:  [7]string{"日期", "店家", "品項", "價格", "冰塊", "甜度", "備註"},
	},
	LocaleEn: {
		Sheet:    "Drinks",
		FilePart: "drinks",
		Columns:  [7]string{"Date", "Store", "Item", "Price", "Ice", "Sugar", "Note"},
	},
}

// NormalizeLocale maps a requested locale onto a supported one, defaulting
// to zh-TW.
func NormalizeLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "en"):
		return LocaleEn
	default:
		return LocaleZhTW
	}
}

// LabelsFor returns the labels of locale.
func LabelsFor(locale string) Labels {
	return labels[NormalizeLocale(locale)]
}
