// Package share composes the message a user sends when sharing one drink.
package share

import (
	"fmt"
	"strings"

	"drinklog/internal/models"
)

// Message is what a native share sheet receives.
type Message struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Clipboard is the text copied when no share sheet is available.
func (m Message) Clipboard() string {
	if m.URL == "" {
		return m.Text
	}
	return m.Text + " " + m.URL
}

type template struct {
	title  string
	body   string // store, item, ice, sugar
	note   string
	footer string
}

var templates = map[string]template{
	"zh-TW": {
		title:  "喝飲料囉！",
		body:   "🥤 我在 %s 喝了 %s (%s/%s)！\n",
		note:   "📝 %s\n",
		footer: "\n快來一起紀錄 👉",
	},
	"en": {
		title:  "Drink time!",
		body:   "🥤 Had %[2]s at %[1]s (%[3]s/%[4]s)!\n",
		note:   "📝 %s\n",
		footer: "\nCome log yours 👉",
	},
}

// Compose builds the share message for d. The note line is omitted when the
// note is empty. Unknown locales fall back to zh-TW.
func Compose(d models.Drink, locale, url string) Message {
	tpl, ok := templates[locale]
	if !ok && strings.HasPrefix(strings.ToLower(locale), "en") {
		tpl, ok = templates["en"]
	}
	if !ok {
		tpl = templates["zh-TW"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, tpl.body, d.Store, d.Item, d.Ice, d.Sugar)
	if d.Note != "" {
		fmt.Fprintf(&b, tpl.note, d.Note)
	}
	b.WriteString(tpl.footer)

	return Message{Title: tpl.title, Text: b.String(), URL: url}
}
