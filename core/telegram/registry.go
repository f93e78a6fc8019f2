package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/lessonbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Registry holds bot commands and callbacks.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
}

// ErrInvalidRegistration is returned for malformed or duplicate registrations.
var ErrInvalidRegistration = errors.New("invalid registration")

// NewRegistry creates an empty Registry. The default callback fallback answers with a short notice.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Невідома дія"})
		},
	}
}

func rejectRegistration(event, kind, name, reason string) error {
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, event,
		slog.String(kind, name),
		slog.String("reason", reason),
	)
	return fmt.Errorf("%w: %s %q: %s", ErrInvalidRegistration, kind, name, reason)
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd Command) error {
	switch {
	case cmd.Handler == nil || cmd.Description == "":
		return rejectRegistration("register.command.skip", "name", name, "invalid")
	case !strings.HasPrefix(name, "/"):
		return rejectRegistration("register.command.skip", "name", name, "no_slash_prefix")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		return rejectRegistration("register.command.duplicate", "name", name, "duplicate")
	}
	r.commands[name] = cmd
	return nil
}

// ListCommands returns the command menu sorted by name. Hidden commands appear only in the
// admin menu (withAdmin) and only when they are admin-only; admin-only commands never
// appear in the public menu.
func (r *Registry) ListCommands(visibleOnly, withAdmin bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if meta.AdminOnly && !withAdmin {
			continue
		}
		if visibleOnly && meta.Hidden && !meta.AdminOnly {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves the first word of text to a command key, by name or alias.
// A trailing "@botname" and any arguments are ignored.
func (r *Registry) LookupCommand(text string) (string, Command, bool) {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	word, _, _ = strings.Cut(word, "@")
	if word == "" {
		return "", Command{}, false
	}
	name := "/" + strings.TrimPrefix(word, "/")

	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if "/"+strings.TrimPrefix(alias, "/") == name {
				return key, cmd, true
			}
		}
	}
	return "", Command{}, false
}

// Commands returns a snapshot of all registered commands.
func (r *Registry) Commands() map[string]Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback maps a callback unique key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return rejectRegistration("register.callback.skip", "key", key, "invalid")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		return rejectRegistration("register.callback.duplicate", "key", key, "duplicate")
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler registered for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted keys (for diagnostics).
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback for unknown callbacks. The fallback must answer
// the callback query itself.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// InitBotCommands publishes the command menu: public commands for everyone and,
// per admin chat, the admin set as well.
func InitBotCommands(bot *tele.Bot, reg *Registry, adminIDs []int64) {
	if err := bot.SetCommands(reg.ListCommands(true, false)); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
	adminCommands := reg.ListCommands(true, true)
	for _, id := range adminIDs {
		scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: id}
		if err := bot.SetCommands(adminCommands, scope); err != nil {
			logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.commands.admin_scope_failed",
				slog.Int64("admin", id),
				slog.String("err", err.Error()),
			)
		}
	}
}
