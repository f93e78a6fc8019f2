package bot

import (
	"context"
	"fmt"
	"io"
	"strings"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	tg "github.com/m3rciful/lessonbot/core/telegram"
	"github.com/m3rciful/lessonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"
	"github.com/m3rciful/lessonbot/core/telegram/keyboard"
	"github.com/m3rciful/lessonbot/core/telegram/middleware"
	"github.com/m3rciful/lessonbot/core/telegram/router"
	"github.com/m3rciful/lessonbot/internal/apperr"

	tele "gopkg.in/telebot.v4"
)

// App binds the Dispatcher to the Telegram runtime.
type App struct {
	cfg        *coreconfig.Config
	dispatcher *Dispatcher
	admins     middleware.Authorizer
	closer     io.Closer
}

// NewApp builds the adapter. closer, when set, is released by Close.
func NewApp(cfg *coreconfig.Config, d *Dispatcher, admins middleware.Authorizer, closer io.Closer) *App {
	return &App{cfg: cfg, dispatcher: d, admins: admins, closer: closer}
}

// Close releases the storage held by the app.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// TelegramRunOptions registers commands, callbacks and fallbacks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.registerCommands(reg); err != nil {
		return tg.RunOptions{}, err
	}
	for _, key := range CallbackKeys() {
		if err := reg.RegisterCallback(key, a.onCallback); err != nil {
			return tg.RunOptions{}, err
		}
	}
	reg.SetCallbackNotFound(func(c tele.Context) error {
		act := DecodeCallback(callbacks.FromContext(c))
		if act.Kind == ActUnknown {
			return a.UnknownCallback()(c)
		}
		_ = c.Respond()
		return a.handle(c, act)
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		Admins:        a.admins,
		OnAdminReject: a.rejectAdmin,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(reg, a)...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
	}, nil
}

func (a *App) registerCommands(reg *tg.Registry) error {
	commands := []struct {
		name string
		cmd  tg.Command
	}{
		{"/start", tg.Command{Handler: a.command(ActStart), Description: "Головне меню"}},
		{"/today", tg.Command{Handler: a.command(ActToday), Description: "Розклад на сьогодні"}},
		{"/week", tg.Command{Handler: a.command(ActWeek), Description: "Розклад на тиждень"}},
		{"/bells", tg.Command{Handler: a.command(ActBells), Description: "Розклад дзвінків"}},
		{"/upload", tg.Command{
			Handler:     a.command(ActUploadMenu),
			Description: "Оновити розклад",
			AdminOnly:   true,
			Hidden:      true,
		}},
		{"/cancel", tg.Command{
			Handler:     a.command(ActCancelUpload),
			Description: "Скасувати завантаження",
			AdminOnly:   true,
			Hidden:      true,
		}},
	}
	for _, c := range commands {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) command(kind ActionKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.handle(c, Action{Kind: kind})
	}
}

func (a *App) onCallback(c tele.Context) error {
	return a.handle(c, DecodeCallback(callbacks.FromContext(c)))
}

func (a *App) rejectAdmin(c tele.Context) error {
	router.MarkRejected(c, string(apperr.UnauthorizedAction))
	return tghelpers.SendHTML(c, textAdminOnly)
}

// UnknownText answers free text; mistyped commands such as "/TODAY" still resolve.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.handle(c, DecodeCommand(c.Text()))
	}
}

// UnknownCallback answers presses of buttons this bot no longer has.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Respond(&tele.CallbackResponse{Text: textUnknownAction})
		router.MarkRejected(c, "UNKNOWN_CALLBACK")
		return nil
	}
}

// Document hands uploads to the dispatcher, which decides whether one is expected.
func (a *App) Document() tele.HandlerFunc {
	return func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || msg.Document == nil {
			return nil
		}
		return a.handle(c, FileAction(a.fileRef(c, msg.Document)))
	}
}

func (a *App) fileRef(c tele.Context, doc *tele.Document) FileRef {
	limit := a.cfg.Ingest.MaxFileBytes
	size := int64(doc.FileSize)
	return FileRef{
		Name: doc.FileName,
		Size: size,
		Fetch: func(ctx context.Context) ([]byte, error) {
			if limit > 0 && size > limit {
				return nil, apperr.Newf(apperr.MalformedUpload, "bot.fetch", "файл більший за %d байт", limit)
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rc, err := c.Bot().File(&doc.File)
			if err != nil {
				return nil, fmt.Errorf("download %s: %w", doc.FileID, err)
			}
			defer rc.Close()
			r := io.Reader(rc)
			if limit > 0 {
				r = io.LimitReader(rc, limit+1)
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", doc.FileID, err)
			}
			if limit > 0 && int64(len(data)) > limit {
				return nil, apperr.Newf(apperr.MalformedUpload, "bot.fetch", "файл більший за %d байт", limit)
			}
			return data, nil
		},
	}
}

// handle runs a through the dispatcher and sends its reply. Expected refusals are marked on
// the context for the handler summary; storage and transport failures are returned.
func (a *App) handle(c tele.Context, act Action) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.dispatcher.Handle(ctx, userOf(c), act)
	if reply.Text != "" {
		if sendErr := a.send(c, reply); sendErr != nil && err == nil {
			err = sendErr
		}
	}
	if err == nil {
		return nil
	}
	switch kind := apperr.KindOf(err); kind {
	case "", apperr.DatasetUnavailable:
		return err
	default:
		router.MarkRejected(c, string(kind))
		return nil
	}
}

func (a *App) send(c tele.Context, reply Reply) error {
	markup := markupOf(reply.Buttons)
	var opts []*tele.ReplyMarkup
	if markup != nil {
		opts = append(opts, markup)
	}
	if reply.Edit && c.Callback() != nil {
		return tghelpers.EditOrSendHTML(c, reply.Text, opts...)
	}
	return tghelpers.SendHTML(c, reply.Text, opts...)
}

func markupOf(rows [][]Button) *tele.ReplyMarkup {
	kb := make([][]keyboard.Button, len(rows))
	for i, row := range rows {
		kb[i] = make([]keyboard.Button, len(row))
		for j, b := range row {
			kb[i][j] = keyboard.Button(b)
		}
	}
	return keyboard.Rows(kb...)
}

func userOf(c tele.Context) User {
	s := c.Sender()
	if s == nil {
		return User{}
	}
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		name = s.Username
	}
	return User{ID: s.ID, Name: name}
}
