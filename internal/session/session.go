// Package session tracks student registrations and admin capability.
package session

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/apperr"
	"github.com/m3rciful/lessonbot/internal/store"
)

// Authorizer decides whether a user may run admin actions.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// AllowList is a static set of admin user ids.
type AllowList map[int64]struct{}

// NewAllowList builds an AllowList from ids.
func NewAllowList(ids []int64) AllowList {
	a := make(AllowList, len(ids))
	for _, id := range ids {
		a[id] = struct{}{}
	}
	return a
}

// IsAdmin implements Authorizer.
func (a AllowList) IsAdmin(userID int64) bool {
	_, ok := a[userID]
	return ok
}

// Registration is a student's stored class selection.
type Registration struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Class string `json:"class"`
}

// Students is the stored registration map keyed by decimal user id.
type Students map[string]Registration

// Manager reads and writes registrations.
type Manager struct {
	datasets *store.Datasets
	auth     Authorizer
	classes  []string
	known    map[string]struct{}
}

// NewManager builds a Manager offering classes for selection.
func NewManager(datasets *store.Datasets, auth Authorizer, classes []string) *Manager {
	if auth == nil {
		auth = AllowList(nil)
	}
	known := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		known[c] = struct{}{}
	}
	return &Manager{
		datasets: datasets,
		auth:     auth,
		classes:  append([]string(nil), classes...),
		known:    known,
	}
}

// Classes returns the selectable class ids in display order.
func (m *Manager) Classes() []string {
	return append([]string(nil), m.classes...)
}

// IsKnownClass reports whether classID is selectable.
func (m *Manager) IsKnownClass(classID string) bool {
	_, ok := m.known[classID]
	return ok
}

// IsAdmin reports admin capability for userID.
func (m *Manager) IsAdmin(userID int64) bool {
	return m.auth.IsAdmin(userID)
}

// GetClass returns the registered class of userID; ok is false for unregistered users.
func (m *Manager) GetClass(ctx context.Context, userID int64) (string, bool, error) {
	students, err := store.Read[Students](ctx, m.datasets, store.Students)
	if err != nil {
		return "", false, err
	}
	reg, ok := students[key(userID)]
	if !ok {
		return "", false, nil
	}
	return reg.Class, true, nil
}

// SetClass creates or overwrites the registration of userID.
func (m *Manager) SetClass(ctx context.Context, userID int64, displayName, classID string) error {
	if !m.IsKnownClass(classID) {
		return apperr.Newf(apperr.UnknownClass, "session.set_class", "class %q is not offered", classID)
	}
	err := store.Update(ctx, m.datasets, store.Students, func(s *Students) error {
		if *s == nil {
			*s = Students{}
		}
		(*s)[key(userID)] = Registration{ID: userID, Name: displayName, Class: classID}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "session", "class.set",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("class_id", classID),
	)
	return nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
