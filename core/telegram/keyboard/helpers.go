// Package keyboard builds inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button. Unique routes the press; Data is its payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

func (b Button) inline() tele.InlineButton {
	return tele.InlineButton{Text: b.Text, Unique: b.Unique, Data: b.Data}
}

// Rows lays buttons out row by row, skipping empty rows.
// The result is nil when nothing is left, so it can be passed on unconditionally.
func Rows(rows ...[]Button) *tele.ReplyMarkup {
	var keyboard [][]tele.InlineButton
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		line := make([]tele.InlineButton, len(row))
		for i, b := range row {
			line[i] = b.inline()
		}
		keyboard = append(keyboard, line)
	}
	if len(keyboard) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: keyboard}
}
