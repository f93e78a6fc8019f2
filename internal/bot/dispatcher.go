// Package bot turns decoded user actions into replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/apperr"
	"github.com/m3rciful/lessonbot/internal/ingest"
	"github.com/m3rciful/lessonbot/internal/render"
	"github.com/m3rciful/lessonbot/internal/schedule"
	"github.com/m3rciful/lessonbot/internal/session"
)

// User identifies who triggered an action.
type User struct {
	ID   int64
	Name string
}

// Dispatcher routes actions to the session, schedule and ingest components.
type Dispatcher struct {
	sessions *session.Manager
	resolver *schedule.Resolver
	uploads  *ingest.Machine
}

// NewDispatcher wires the components.
func NewDispatcher(sessions *session.Manager, resolver *schedule.Resolver, uploads *ingest.Machine) *Dispatcher {
	return &Dispatcher{sessions: sessions, resolver: resolver, uploads: uploads}
}

// Handle produces exactly one reply for a. The error, when set, describes why the action did
// not complete; the reply already explains it to the user.
func (d *Dispatcher) Handle(ctx context.Context, u User, a Action) (Reply, error) {
	admin := d.sessions.IsAdmin(u.ID)
	if a.Kind.adminOnly() && !admin {
		logger.Warn(ctx, "session", "admin.denied",
			slog.String("status", "rejected"),
			slog.Int64("user_id", u.ID),
			slog.String("action", a.Kind.String()),
		)
		return Reply{Text: textAdminOnly}, apperr.Newf(apperr.UnauthorizedAction, "bot."+a.Kind.String(), "user %d is not an admin", u.ID)
	}

	reply, err := d.route(ctx, u, admin, a)
	if err != nil && apperr.KindOf(err) == apperr.DatasetUnavailable {
		return Reply{Text: textUnavailable}, err
	}
	return reply, err
}

func (d *Dispatcher) route(ctx context.Context, u User, admin bool, a Action) (Reply, error) {
	switch a.Kind {
	case ActStart:
		return d.start(ctx, u, admin)
	case ActSelectClass:
		return d.selectClass(ctx, u, admin, a.ClassID)
	case ActChangeClass:
		return Reply{Text: textChangeClass, Buttons: classMenu(d.sessions.Classes()), Edit: true}, nil
	case ActToday:
		return d.today(ctx, u, admin)
	case ActWeek:
		return d.week(ctx, u, admin)
	case ActBells:
		bells, err := d.resolver.Bells(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Text: render.Bells(bells), Buttons: mainMenu(admin)}, nil
	case ActUploadMenu:
		return Reply{Text: textUploadMenu, Buttons: uploadMenu(d.sessions.Classes()), Edit: true}, nil
	case ActUploadAll:
		d.uploads.ExpectSchedule(ctx, ingest.AllClasses(), u.ID)
		return Reply{Text: textSendAll, Buttons: [][]Button{cancelRow()}, Edit: true}, nil
	case ActUploadClass:
		if !d.sessions.IsKnownClass(a.ClassID) {
			return Reply{Text: textUploadMenu, Buttons: uploadMenu(d.sessions.Classes()), Edit: true},
				apperr.Newf(apperr.UnknownClass, "bot.upload_class", "class %q is not offered", a.ClassID)
		}
		d.uploads.ExpectSchedule(ctx, ingest.Class(a.ClassID), u.ID)
		return Reply{Text: escapef(textSendClass, a.ClassID), Buttons: [][]Button{cancelRow()}, Edit: true}, nil
	case ActUpdateBells:
		d.uploads.ExpectBells(ctx, u.ID)
		return Reply{Text: textSendBells, Buttons: [][]Button{cancelRow()}, Edit: true}, nil
	case ActCancelUpload:
		text := textCancelled
		if !d.uploads.Cancel(ctx) {
			text = textMenu
		}
		return Reply{Text: text, Buttons: mainMenu(admin), Edit: true}, nil
	case ActFile:
		return d.file(ctx, u, admin, a.File)
	}
	return Reply{Text: textUnknown}, nil
}

func (d *Dispatcher) start(ctx context.Context, u User, admin bool) (Reply, error) {
	if admin {
		return Reply{Text: escapef(textGreetAdmin, u.Name), Buttons: mainMenu(true)}, nil
	}
	class, ok, err := d.sessions.GetClass(ctx, u.ID)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Text: textChooseClass, Buttons: classMenu(d.sessions.Classes())}, nil
	}
	return Reply{Text: escapef(textGreetBack, class), Buttons: mainMenu(false)}, nil
}

func (d *Dispatcher) selectClass(ctx context.Context, u User, admin bool, classID string) (Reply, error) {
	if err := d.sessions.SetClass(ctx, u.ID, u.Name, classID); err != nil {
		if errors.Is(err, apperr.ErrUnknownClass) {
			return Reply{Text: textUnknownClass, Buttons: classMenu(d.sessions.Classes()), Edit: true}, err
		}
		return Reply{}, err
	}
	return Reply{Text: escapef(textClassSet, classID), Buttons: mainMenu(admin), Edit: true}, nil
}

// registeredClass returns the user's class, or a prompt reply when there is none.
func (d *Dispatcher) registeredClass(ctx context.Context, u User) (string, *Reply, error) {
	class, ok, err := d.sessions.GetClass(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", &Reply{Text: textChooseFirst, Buttons: classMenu(d.sessions.Classes())}, nil
	}
	return class, nil, nil
}

func (d *Dispatcher) today(ctx context.Context, u User, admin bool) (Reply, error) {
	class, prompt, err := d.registeredClass(ctx, u)
	if err != nil || prompt != nil {
		return deref(prompt), err
	}
	day, lessons, err := d.resolver.Today(ctx, class)
	if err != nil {
		return Reply{}, err
	}
	bells, err := d.resolver.Bells(ctx)
	if err != nil {
		return Reply{}, err
	}
	rows := schedule.Align(lessons, bells)
	return Reply{Text: render.Today(class, day, rows), Buttons: mainMenu(admin)}, nil
}

func (d *Dispatcher) week(ctx context.Context, u User, admin bool) (Reply, error) {
	class, prompt, err := d.registeredClass(ctx, u)
	if err != nil || prompt != nil {
		return deref(prompt), err
	}
	week, err := d.resolver.WeekSchedule(ctx, class)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: render.Week(class, week), Buttons: mainMenu(admin)}, nil
}

func (d *Dispatcher) file(ctx context.Context, u User, admin bool, ref FileRef) (Reply, error) {
	if !admin {
		return Reply{}, nil
	}
	if !d.uploads.Current().Pending() {
		return Reply{Text: textNoPending, Buttons: mainMenu(true)},
			apperr.Newf(apperr.NothingPending, "bot.file", "no upload expected")
	}
	if ref.Fetch == nil {
		d.uploads.Cancel(ctx)
		return Reply{Text: textFetchFailed, Buttons: mainMenu(true)}, fmt.Errorf("bot.file: no fetcher for %q", ref.Name)
	}
	data, err := ref.Fetch(ctx)
	if err != nil {
		d.uploads.Cancel(ctx)
		if apperr.KindOf(err) == apperr.MalformedUpload {
			return Reply{Text: escapef(textRejected, detail(err)), Buttons: mainMenu(true)}, err
		}
		return Reply{Text: textFetchFailed, Buttons: mainMenu(true)}, fmt.Errorf("bot.file: fetch %q: %w", ref.Name, err)
	}

	res, err := d.uploads.Consume(ctx, data)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrMalformedUpload):
		return Reply{Text: escapef(textRejected, detail(err)), Buttons: mainMenu(true)}, err
	case errors.Is(err, apperr.ErrNothingPending):
		return Reply{Text: textNoPending, Buttons: mainMenu(true)}, err
	default:
		return Reply{}, err
	}
	return Reply{Text: savedText(res), Buttons: mainMenu(true)}, nil
}

func savedText(res ingest.Result) string {
	switch {
	case res.Kind == ingest.AwaitingBells:
		return fmt.Sprintf(textSavedBells, res.Periods)
	case res.Target.All():
		return escapef(textSavedAll, strings.Join(res.Classes, ", "))
	default:
		return escapef(textSavedClass, res.Target.ClassID())
	}
}

// detail returns the cause of an apperr without its kind prefix.
func detail(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}

func deref(r *Reply) Reply {
	if r == nil {
		return Reply{}
	}
	return *r
}
