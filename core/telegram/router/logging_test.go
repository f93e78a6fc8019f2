package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/m3rciful/lessonbot/internal/apperr"
)

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", apperr.Newf(apperr.DatasetUnavailable, "store.load", "disk"))
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{apperr.Newf(apperr.MalformedUpload, "ingest.parse", "bad"), "MALFORMED_UPLOAD"},
		{wrapped, "DATASET_UNAVAILABLE"},
		{&plainErr{}, "PLAINERR"},
		{errors.New("x"), "ERRORSTRING"},
	}
	for _, c := range cases {
		if got := deriveErrorCode(c.err); got != c.want {
			t.Errorf("deriveErrorCode(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{
		"/Start":      "start",
		"":            "unknown",
		" upload all": "upload_all",
	}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Errorf("normalizeHandlerName(%q) = %q", in, got)
		}
	}
}
