// Package ui declares the handlers a bot supplies for updates no route claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands or registered callback keys.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
	// Document handles every inbound document; whether one is expected is the bot's call.
	Document() tele.HandlerFunc
}
