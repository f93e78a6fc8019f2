package router

import (
	"errors"
	"testing"

	"github.com/m3rciful/lessonbot/core/logger"
	tg "github.com/m3rciful/lessonbot/core/telegram"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	text      string
	store     map[string]any
	responded int
}

func newFakeContext(text string) *fakeContext {
	return &fakeContext{text: text, store: map[string]any{}}
}

func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Text() string          { return f.text }
func (f *fakeContext) Update() tele.Update   { return tele.Update{ID: 11} }
func (f *fakeContext) Chat() *tele.Chat      { return &tele.Chat{ID: 22} }
func (f *fakeContext) Sender() *tele.User    { return &tele.User{ID: 33} }

func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

func TestVerdict(t *testing.T) {
	c := newFakeContext("")
	if s, o := verdict(c, nil); s != "ok" || o != "ok" {
		t.Fatalf("plain = %s/%s", s, o)
	}
	MarkRejected(c, "UNKNOWN_CLASS")
	if s, o := verdict(c, nil); s != "rejected" || o != "rejected" {
		t.Fatalf("rejected = %s/%s", s, o)
	}
	if c.Get(ErrCodeKey) != "UNKNOWN_CLASS" {
		t.Fatalf("err code = %v", c.Get(ErrCodeKey))
	}
	if s, o := verdict(c, errors.New("boom")); s != "fail" || o != "fail" {
		t.Fatalf("error = %s/%s", s, o)
	}
}

type fallbacks struct{ text, docs int }

func (f *fallbacks) UnknownText() tele.HandlerFunc {
	return func(tele.Context) error { f.text++; return nil }
}
func (f *fallbacks) UnknownCallback() tele.HandlerFunc { return nil }
func (f *fallbacks) Document() tele.HandlerFunc {
	return func(tele.Context) error { f.docs++; return nil }
}

func TestTextRoutesRunPublicCommandsOnly(t *testing.T) {
	reg := tg.NewRegistry()
	var week, cancel int
	if err := reg.RegisterCommand("/week", tg.Command{Description: "week", Handler: func(tele.Context) error { week++; return nil }}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCommand("/cancel", tg.Command{Description: "cancel", AdminOnly: true, Handler: func(tele.Context) error { cancel++; return nil }}); err != nil {
		t.Fatal(err)
	}
	fb := &fallbacks{}
	routes := TextRoutes(reg, fb)
	text, document := routes[0].Handler, routes[1].Handler

	for _, in := range []string{"/week", "/cancel", "привіт"} {
		if err := text(newFakeContext(in)); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
	}
	if week != 1 || cancel != 0 || fb.text != 2 {
		t.Fatalf("week=%d cancel=%d unknown=%d", week, cancel, fb.text)
	}
	if err := document(newFakeContext("")); err != nil || fb.docs != 1 {
		t.Fatalf("document: docs=%d err=%v", fb.docs, err)
	}
}

func TestSummarizeTagsHandler(t *testing.T) {
	c := newFakeContext("")
	want := errors.New("boom")
	err := summarize(c, "week", func(tele.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
	ctx, ok := tghelpers.ContextFrom(c)
	if !ok || logger.HandlerFrom(ctx) != "week" {
		t.Fatal("handler not tagged on the logging context")
	}
}
