package bot

import (
	"context"
	"strings"
)

// ActionKind enumerates everything a user can ask the bot to do.
type ActionKind int

const (
	ActUnknown ActionKind = iota
	ActStart
	ActSelectClass
	ActToday
	ActWeek
	ActBells
	ActChangeClass
	ActUploadMenu
	ActUploadAll
	ActUploadClass
	ActUpdateBells
	ActCancelUpload
	ActFile
)

var actionNames = map[ActionKind]string{
	ActUnknown:      "unknown",
	ActStart:        "start",
	ActSelectClass:  "select_class",
	ActToday:        "today",
	ActWeek:         "week",
	ActBells:        "bells",
	ActChangeClass:  "change_class",
	ActUploadMenu:   "upload_menu",
	ActUploadAll:    "upload_all",
	ActUploadClass:  "upload_class",
	ActUpdateBells:  "update_bells",
	ActCancelUpload: "upload_cancel",
	ActFile:         "file",
}

func (k ActionKind) String() string { return actionNames[k] }

// adminOnly lists kinds restricted to the allow-list.
func (k ActionKind) adminOnly() bool {
	switch k {
	case ActUploadMenu, ActUploadAll, ActUploadClass, ActUpdateBells, ActCancelUpload:
		return true
	}
	return false
}

// FileRef points at an uploaded document. Fetch downloads its content.
type FileRef struct {
	Name  string
	Size  int64
	Fetch func(ctx context.Context) ([]byte, error)
}

// Action is a decoded user request. ClassID is set for ActSelectClass and ActUploadClass,
// File for ActFile.
type Action struct {
	Kind    ActionKind
	ClassID string
	File    FileRef
}

// Callback unique keys.
const (
	cbClass       = "class"
	cbToday       = "today"
	cbWeek        = "week"
	cbBells       = "bells"
	cbChangeClass = "change_class"
	cbUpload      = "upload"
	cbUploadAll   = "upload_all"
	cbUploadClass = "upload_class"
	cbUpdateBells = "update_bells"
	cbCancel      = "upload_cancel"
)

// CallbackKeys returns every unique key the bot registers.
func CallbackKeys() []string {
	return []string{cbClass, cbToday, cbWeek, cbBells, cbChangeClass, cbUpload, cbUploadAll, cbUploadClass, cbUpdateBells, cbCancel}
}

// Keys sent by keyboards of the earlier deployment; still present in old chats.
var legacyCallbacks = map[string]ActionKind{
	"today_schedule":  ActToday,
	"week_schedule":   ActWeek,
	"bells_schedule":  ActBells,
	"upload_schedule": ActUploadMenu,
}

// DecodeCallback maps callback data to an Action.
func DecodeCallback(unique, payload string) Action {
	unique = strings.TrimSpace(unique)
	payload = strings.TrimSpace(payload)
	switch unique {
	case cbClass:
		if payload == "" {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActSelectClass, ClassID: payload}
	case cbUploadClass:
		if payload == "" {
			return Action{Kind: ActUnknown}
		}
		return Action{Kind: ActUploadClass, ClassID: payload}
	case cbToday:
		return Action{Kind: ActToday}
	case cbWeek:
		return Action{Kind: ActWeek}
	case cbBells:
		return Action{Kind: ActBells}
	case cbChangeClass:
		return Action{Kind: ActChangeClass}
	case cbUpload:
		return Action{Kind: ActUploadMenu}
	case cbUploadAll:
		return Action{Kind: ActUploadAll}
	case cbUpdateBells:
		return Action{Kind: ActUpdateBells}
	case cbCancel:
		return Action{Kind: ActCancelUpload}
	}
	if kind, ok := legacyCallbacks[unique]; ok {
		return Action{Kind: kind}
	}
	if id, ok := strings.CutPrefix(unique, "class:"); ok && strings.TrimSpace(id) != "" {
		return Action{Kind: ActSelectClass, ClassID: strings.TrimSpace(id)}
	}
	return Action{Kind: ActUnknown}
}

// DecodeCommand maps a "/command[@bot] [args]" message to an Action.
func DecodeCommand(text string) Action {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Action{Kind: ActUnknown}
	}
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	switch name {
	case "/start":
		return Action{Kind: ActStart}
	case "/today":
		return Action{Kind: ActToday}
	case "/week":
		return Action{Kind: ActWeek}
	case "/bells":
		return Action{Kind: ActBells}
	case "/upload":
		return Action{Kind: ActUploadMenu}
	case "/cancel":
		return Action{Kind: ActCancelUpload}
	}
	return Action{Kind: ActUnknown}
}

// FileAction wraps an uploaded document.
func FileAction(ref FileRef) Action {
	return Action{Kind: ActFile, File: ref}
}
