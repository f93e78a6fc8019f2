// Package format builds Telegram HTML fragments.
package format

import "strings"

// Telegram HTML mode requires only these three characters to be escaped.
var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape makes text safe for tele.ModeHTML.
func Escape(text string) string {
	return htmlEscaper.Replace(text)
}

// Bold wraps escaped text in <b>.
func Bold(text string) string {
	return "<b>" + Escape(text) + "</b>"
}

// Code wraps escaped text in <code>.
func Code(text string) string {
	return "<code>" + Escape(text) + "</code>"
}
