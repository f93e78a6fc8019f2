package telegram

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func newTestRegistry() *Registry {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "menu"})
	reg.RegisterCommand("/week", Command{Handler: noop, Description: "week", Aliases: []string{"w"}})
	reg.RegisterCommand("/cancel", Command{Handler: noop, Description: "cancel", AdminOnly: true, Hidden: true})
	return reg
}

func TestListCommandsScopes(t *testing.T) {
	reg := newTestRegistry()
	public := reg.ListCommands(true, false)
	if len(public) != 2 || public[0].Text != "start" || public[1].Text != "week" {
		t.Fatalf("public = %+v", public)
	}
	admin := reg.ListCommands(true, true)
	if len(admin) != 3 || admin[0].Text != "cancel" {
		t.Fatalf("admin = %+v", admin)
	}
}

func TestLookupCommand(t *testing.T) {
	reg := newTestRegistry()
	for _, in := range []string{"/week", "/week@lesson_bot", "/week 7", "/w"} {
		key, _, ok := reg.LookupCommand(in)
		if !ok || key != "/week" {
			t.Errorf("LookupCommand(%q) = %q %v", in, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("hello"); ok {
		t.Fatal("unexpected match")
	}
}

func TestRegisterCommandRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("start", Command{Handler: noop, Description: "x"}); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("no slash: %v", err)
	}
	if err := reg.RegisterCommand("/empty", Command{Handler: noop}); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatalf("no description: %v", err)
	}
	if len(reg.Commands()) != 0 {
		t.Fatalf("commands = %v", reg.Commands())
	}
}

func TestRegisterCallbackDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("week", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("week", noop); !errors.Is(err, ErrInvalidRegistration) {
		t.Fatal("expected duplicate error")
	}
	if keys := reg.ListCallbacks(); len(keys) != 1 || keys[0] != "week" {
		t.Fatalf("keys = %v", keys)
	}
}
